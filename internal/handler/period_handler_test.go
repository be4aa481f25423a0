package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openedu-vn/school-admin-api/internal/models"
	"github.com/openedu-vn/school-admin-api/internal/service"
	"github.com/openedu-vn/school-admin-api/pkg/response"
)

type periodRepoMock struct {
	periods    []models.Period
	deleteErrs map[string]error
}

func (m *periodRepoMock) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, error) {
	return m.periods, nil
}

func (m *periodRepoMock) FindByID(ctx context.Context, id string) (*models.Period, error) {
	for _, p := range m.periods {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *periodRepoMock) Create(ctx context.Context, period *models.Period) error {
	period.ID = "created"
	return nil
}

func (m *periodRepoMock) Update(ctx context.Context, period *models.Period) error { return nil }

func (m *periodRepoMock) Delete(ctx context.Context, id string) error {
	if err, ok := m.deleteErrs[id]; ok {
		return err
	}
	return nil
}

func periodRouter(repo *periodRepoMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPeriodHandler(service.NewPeriodService(repo, nil, nil))
	r := gin.New()
	r.GET("/periods", h.List)
	r.POST("/periods/apply", h.ApplyDiff)
	return r
}

func TestPeriodListRequiresScope(t *testing.T) {
	r := periodRouter(&periodRepoMock{})

	req := httptest.NewRequest(http.MethodGet, "/periods?school_id=sch-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPeriodApplyDiffFullSuccess(t *testing.T) {
	repo := &periodRepoMock{periods: []models.Period{
		{ID: "p1", SchoolID: "sch-1", SchoolYear: "2025-2026", Number: 1, StartTime: "07:00", EndTime: "07:45", Type: models.PeriodRegular},
	}}
	r := periodRouter(repo)

	body, err := json.Marshal(service.ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods: []service.PeriodInput{
			{Number: 2, StartTime: "07:50", EndTime: "08:35", Type: "regular"},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/periods/apply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result service.ApplyDiffResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []string{"p1"}, result.Deleted)
	assert.Equal(t, []string{"created"}, result.Created)
}

func TestPeriodApplyDiffPartialReturns207(t *testing.T) {
	repo := &periodRepoMock{
		periods: []models.Period{
			{ID: "p1", SchoolID: "sch-1", SchoolYear: "2025-2026", Number: 1, StartTime: "07:00", EndTime: "07:45", Type: models.PeriodRegular},
		},
		deleteErrs: map[string]error{"p1": errors.New("row locked")},
	}
	r := periodRouter(repo)

	body, err := json.Marshal(service.ApplyDiffRequest{
		SchoolID:   "sch-1",
		SchoolYear: "2025-2026",
		Periods:    []service.PeriodInput{},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/periods/apply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
}

func TestPeriodApplyDiffRejectsInvalidBody(t *testing.T) {
	r := periodRouter(&periodRepoMock{})

	req := httptest.NewRequest(http.MethodPost, "/periods/apply", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
