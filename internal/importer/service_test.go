package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openedu-vn/school-admin-api/internal/models"
	appErrors "github.com/openedu-vn/school-admin-api/pkg/errors"
)

type stubPeriodLister struct {
	periods []models.Period
	err     error
}

func (s *stubPeriodLister) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	return s.periods, s.err
}

type stubSubjectLister struct {
	subjects []models.Subject
	err      error
}

func (s *stubSubjectLister) ListAll(ctx context.Context) ([]models.Subject, error) {
	return s.subjects, s.err
}

type stubSubmitter struct {
	received []models.TimetableImportRecord
	err      error
}

func (s *stubSubmitter) BulkImport(ctx context.Context, schoolYear string, records []models.TimetableImportRecord) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.received = records
	return len(records), nil
}

func newTestService(periods []models.Period, subjects []models.Subject, sink *stubSubmitter) *Service {
	return NewService(
		&stubPeriodLister{periods: periods},
		&stubSubjectLister{subjects: subjects},
		sink,
		Config{},
		zap.NewNop(),
	)
}

func TestImportRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(declaredPeriods(1), catalog(), &stubSubmitter{})

	_, err := svc.Import(context.Background(), Request{Filename: "timetable.csv", Data: []byte("x")})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnsupportedFile.Code, appErr.Code)
}

func TestImportRejectsOversizedFile(t *testing.T) {
	svc := NewService(
		&stubPeriodLister{periods: declaredPeriods(1)},
		&stubSubjectLister{subjects: catalog()},
		&stubSubmitter{},
		Config{MaxFileSizeBytes: 8},
		zap.NewNop(),
	)

	_, err := svc.Import(context.Background(), Request{Filename: "t.xlsx", Data: make([]byte, 16)})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, appErr.Code)
}

func TestImportRequiresDeclaredPeriods(t *testing.T) {
	svc := newTestService(nil, catalog(), &stubSubmitter{})

	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 1, "Toán"},
	})
	_, err := svc.Import(context.Background(), Request{Filename: "t.xlsx", Data: data})
	require.ErrorIs(t, err, appErrors.ErrNoPeriodsDeclared)
}

func TestImportReportsNoValidRows(t *testing.T) {
	svc := newTestService(declaredPeriods(1), catalog(), &stubSubmitter{})

	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 1, "(Trống)"},
	})
	_, err := svc.Import(context.Background(), Request{Filename: "t.xlsx", Data: data})
	require.ErrorIs(t, err, appErrors.ErrNoValidRows)
}

func TestImportFailsWhenNothingResolves(t *testing.T) {
	svc := newTestService(declaredPeriods(1), catalog(), &stubSubmitter{})

	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 1, "zzz bộ môn bí ẩn"},
	})
	_, err := svc.Import(context.Background(), Request{Filename: "t.xlsx", Data: data})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoSubjectsResolved.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "zzz bộ môn bí ẩn")
}

func TestImportPartialSuccess(t *testing.T) {
	sink := &stubSubmitter{}
	svc := newTestService(declaredPeriods(1, 2), catalog(), sink)

	// 6 cells parse; 3 resolve and 3 drop, carrying 2 distinct unknown names.
	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1", "10A2", "10A3"},
		{"Thứ Hai", 1, "Toán", "Văn", "zzz một"},
		{"", 2, "english", "zzz hai", "zzz một"},
	})

	summary, err := svc.Import(context.Background(), Request{SchoolYear: "2025-2026", Filename: "t.xlsx", Data: data})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SubmittedCount)
	assert.Equal(t, 3, summary.UnresolvedCount, "every dropped record counts, including repeats of one name")
	assert.ElementsMatch(t, []string{"zzz một", "zzz hai"}, summary.UnmatchedSubjects)
	require.Len(t, sink.received, 3)
	for _, rec := range sink.received {
		assert.Equal(t, "Homeroom", rec.Room)
		assert.Empty(t, rec.TeacherIDs)
		assert.Equal(t, models.Monday, rec.DayOfWeek)
	}
}

func TestImportPropagatesSubmitError(t *testing.T) {
	sink := &stubSubmitter{err: errors.New("insert failed")}
	svc := newTestService(declaredPeriods(1), catalog(), sink)

	data := sheetBytes(t, [][]interface{}{
		{"Thứ", "Tiết", "10A1"},
		{"Thứ Hai", 1, "Toán"},
	})
	_, err := svc.Import(context.Background(), Request{Filename: "t.xlsx", Data: data})
	require.Error(t, err)
}
