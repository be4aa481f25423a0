package importer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
)

const importedRoom = "Homeroom"

type periodLister interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error)
}

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type recordSubmitter interface {
	BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error)
}

// Config bounds the uploaded workbook.
type Config struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// Request carries one uploaded timetable workbook.
type Request struct {
	SchoolID   string
	SchoolYear string
	Filename   string
	Data       []byte
}

// Summary reports the outcome of an import: what was submitted and which
// subject names could not be matched. Partial success is the normal case.
// UnresolvedCount counts dropped records, so SubmittedCount+UnresolvedCount
// equals the number of parsed cells; UnmatchedSubjects lists distinct names.
type Summary struct {
	SubmittedCount    int        `json:"submitted_count"`
	UnresolvedCount   int        `json:"unresolved_count"`
	UnmatchedSubjects []string   `json:"unmatched_subjects,omitempty"`
	ClassCodes        []string   `json:"class_codes,omitempty"`
	Stats             ParseStats `json:"stats"`
}

// Service runs the import pipeline: workbook checks, parse, subject
// resolution, bulk submission.
type Service struct {
	periods  periodLister
	subjects subjectLister
	sink     recordSubmitter
	parser   *Parser
	cfg      Config
	logger   *zap.Logger
}

// NewService wires the import pipeline.
func NewService(periods periodLister, subjects subjectLister, sink recordSubmitter, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".xlsx", ".xls"}
	}
	return &Service{
		periods:  periods,
		subjects: subjects,
		sink:     sink,
		parser:   NewParser(logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Import executes one best-effort import. Row-level problems are skipped;
// only missing prerequisites or whole-batch emptiness aborts. Rows whose
// subject cannot be resolved are dropped from the submission but reported.
func (s *Service) Import(ctx context.Context, req Request) (*Summary, error) {
	if err := s.checkFile(req); err != nil {
		return nil, err
	}

	periods, err := s.periods.List(ctx, models.PeriodFilter{SchoolID: req.SchoolID, SchoolYear: req.SchoolYear})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	if len(periods) == 0 {
		return nil, appErrors.ErrNoPeriodsDeclared
	}

	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject catalog")
	}

	raw, classes, stats, err := s.parser.Parse(bytes.NewReader(req.Data), periods)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse workbook")
	}
	if len(raw) == 0 {
		return nil, appErrors.ErrNoValidRows
	}

	matcher := NewSubjectMatcher(subjects)
	var resolved []models.TimetableImportRecord
	unresolved := 0
	unmatched := make([]string, 0)
	seenUnmatched := make(map[string]struct{})
	for _, rec := range raw {
		id := matcher.Resolve(rec.SubjectText)
		if id == "" {
			unresolved++
			if _, dup := seenUnmatched[rec.SubjectText]; !dup {
				seenUnmatched[rec.SubjectText] = struct{}{}
				unmatched = append(unmatched, rec.SubjectText)
			}
			continue
		}
		resolved = append(resolved, models.TimetableImportRecord{
			DayOfWeek:    rec.DayOfWeek,
			PeriodNumber: rec.PeriodNumber,
			ClassCode:    rec.ClassCode,
			SubjectID:    id,
			TeacherIDs:   []string{},
			Room:         importedRoom,
		})
	}

	if len(resolved) == 0 {
		msg := fmt.Sprintf("no subjects could be matched against the catalog: %s", strings.Join(unmatched, ", "))
		return nil, appErrors.Clone(appErrors.ErrNoSubjectsResolved, msg)
	}

	submitted, err := s.sink.BulkImport(ctx, req.SchoolYear, resolved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store imported records")
	}

	if len(unmatched) > 0 {
		s.logger.Warn("import finished with unmatched subjects",
			zap.Int("submitted", submitted),
			zap.Strings("unmatched", unmatched))
	}

	return &Summary{
		SubmittedCount:    submitted,
		UnresolvedCount:   unresolved,
		UnmatchedSubjects: unmatched,
		ClassCodes:        classes,
		Stats:             stats,
	}, nil
}

func (s *Service) checkFile(req Request) error {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	allowed := false
	for _, a := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(a) {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrUnsupportedFile, fmt.Sprintf("unsupported file type %q, expected %s", ext, strings.Join(s.cfg.AllowedExtensions, "/")))
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSizeBytes {
		return appErrors.ErrFileTooLarge
	}
	return nil
}
