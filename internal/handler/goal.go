package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/alari/backend/internal/ctxkeys"
	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type createGoalRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	TargetDate  *string `json:"target_date"`
}

type updateGoalRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	TargetDate  *string `json:"target_date"`
	Status      *string `json:"status" validate:"omitempty,oneof=active completed abandoned"`
}

type checkInRequest struct {
	// CheckInDate is either a calendar day (2006-01-02) or an RFC 3339
	// timestamp. Empty means now.
	CheckInDate  string  `json:"check_in_date"`
	Completed    bool    `json:"completed"`
	ProgressNote *string `json:"progress_note" validate:"omitempty,max=2000"`
}

type updateCheckInRequest struct {
	Completed    *bool   `json:"completed"`
	ProgressNote *string `json:"progress_note" validate:"omitempty,max=2000"`
}

// parseTime accepts a calendar day, interpreted at the start of that day in
// loc, or an RFC 3339 timestamp.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	d, err := civil.ParseDate(value)
	if err == nil {
		return d.In(loc), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither a date nor an RFC 3339 timestamp", service.ErrValidation, value)
	}
	return t, nil
}

func (h *GoalHandler) optionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseTime(*value, h.goalService.Calendar().Location())
	if err != nil {
		return nil, err
	}
	t = model.Timestamp(t)
	return &t, nil
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to create goal", err)
		return
	}

	targetDate, err := h.optionalTime(req.TargetDate)
	if err != nil {
		writeError(w, r, "failed to create goal", err)
		return
	}

	goal, err := h.goalService.Create(r.Context(), ctxkeys.UserID(r.Context()), req.Title, req.Description, targetDate)
	if err != nil {
		writeError(w, r, "failed to create goal", err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *model.GoalStatus
	if value := r.URL.Query().Get("status"); value != "" {
		parsed, err := model.ParseGoalStatus(value)
		if err != nil {
			writeError(w, r, "failed to list goals", err)
			return
		}
		status = &parsed
	}

	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "recent"
	}

	goals, err := h.goalService.Goals(r.Context(), ctxkeys.UserID(r.Context()), status, sortBy)
	if err != nil {
		writeError(w, r, "failed to list goals", err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "failed to load goal", err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateGoalRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to update goal", err)
		return
	}

	update := service.GoalUpdate{
		Title:       req.Title,
		Description: req.Description,
	}

	update.TargetDate, err = h.optionalTime(req.TargetDate)
	if err != nil {
		writeError(w, r, "failed to update goal", err)
		return
	}

	if req.Status != nil {
		status, err := model.ParseGoalStatus(*req.Status)
		if err != nil {
			writeError(w, r, "failed to update goal", err)
			return
		}
		update.Status = &status
	}

	goal, err := h.goalService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), update)
	if err != nil {
		writeError(w, r, "failed to update goal", err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "failed to delete goal", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to record check-in", err)
		return
	}

	var date time.Time
	if req.CheckInDate != "" {
		date, err = parseTime(req.CheckInDate, h.goalService.Calendar().Location())
		if err != nil {
			writeError(w, r, "failed to record check-in", err)
			return
		}
	}

	result, err := h.goalService.RecordCheckIn(
		r.Context(),
		ctxkeys.UserID(r.Context()),
		r.PathValue("id"),
		date,
		req.Completed,
		req.ProgressNote,
	)
	if err != nil {
		writeError(w, r, "failed to record check-in", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *GoalHandler) CheckIns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	checkIns, err := h.goalService.CheckIns(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, "failed to list check-ins", err)
		return
	}

	writeJSON(w, http.StatusOK, checkIns)
}

func (h *GoalHandler) UpdateCheckIn(w http.ResponseWriter, r *http.Request) {
	var req updateCheckInRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to update check-in", err)
		return
	}

	result, err := h.goalService.UpdateCheckIn(
		r.Context(),
		ctxkeys.UserID(r.Context()),
		r.PathValue("id"),
		r.PathValue("checkinID"),
		req.ProgressNote,
		req.Completed,
	)
	if err != nil {
		writeError(w, r, "failed to update check-in", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *GoalHandler) DeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.goalService.DeleteCheckIn(
		r.Context(),
		ctxkeys.UserID(r.Context()),
		r.PathValue("id"),
		r.PathValue("checkinID"),
	)
	if err != nil {
		writeError(w, r, "failed to delete check-in", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *GoalHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	result, err := h.goalService.RecomputeStreak(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "failed to recompute streak", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
