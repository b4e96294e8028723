package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/service"
	"github.com/alari/backend/internal/streak"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: title", service.ErrValidation), http.StatusBadRequest},
		{model.ErrInvalidRole, http.StatusBadRequest},
		{repository.ErrGoalNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: g1", streak.ErrUnknownGoal), http.StatusNotFound},
		{repository.ErrCheckInNotFound, http.StatusNotFound},
		{streak.ErrInvalidCheckInDate, http.StatusUnprocessableEntity},
		{model.ErrInvalidStatusTransition, http.StatusConflict},
		{streak.ErrConcurrentModification, http.StatusConflict},
		{repository.ErrGoalConflict, http.StatusConflict},
		{service.ErrGoalNotActive, http.StatusConflict},
		{repository.ErrDuplicateEmail, http.StatusConflict},
		{fmt.Errorf("%w: locked", streak.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	writeError(rec, req, "failed to load goal", errors.New("pq: secret detail"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "failed to load goal")

	rec = httptest.NewRecorder()
	writeError(rec, req, "failed", streak.ErrStorageUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestDecode(t *testing.T) {
	newReq := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	}

	var goal createGoalRequest
	err := decode(httptest.NewRecorder(), newReq(`{"title":"Read"}`), &goal)
	require.NoError(t, err)
	assert.Equal(t, "Read", goal.Title)

	err = decode(httptest.NewRecorder(), newReq(`{"title":""}`), &goal)
	assert.ErrorIs(t, err, service.ErrValidation)

	err = decode(httptest.NewRecorder(), newReq(`{"title":"Read","streak_count":9}`), &goal)
	assert.ErrorIs(t, err, service.ErrValidation)

	err = decode(httptest.NewRecorder(), newReq(`not json`), &goal)
	assert.ErrorIs(t, err, service.ErrValidation)

	var msg appendMessageRequest
	err = decode(httptest.NewRecorder(), newReq(`{"role":"tool","content":"hi"}`), &msg)
	assert.ErrorIs(t, err, service.ErrValidation)

	err = decode(httptest.NewRecorder(), newReq(`{"role":"user","content":"hi","keywords":"flat"}`), &msg)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	got, err := parseTime("2024-06-10", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC)))

	got, err = parseTime("2024-06-10T08:30:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)))

	_, err = parseTime("yesterday", loc)
	assert.ErrorIs(t, err, service.ErrValidation)
}
