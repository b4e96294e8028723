package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alari/backend/internal/app"
	"github.com/alari/backend/internal/handler"
	"github.com/alari/backend/internal/middleware"
)

func SetupRoutes(app *app.App, limiter *middleware.RateLimiter) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	user := handler.NewUserHandler(app.UserService)
	conversation := handler.NewConversationHandler(app.ConversationService)
	goal := handler.NewGoalHandler(app.GoalService)

	// Writes are rate limited per caller
	write := func(h http.HandlerFunc) http.HandlerFunc {
		return limiter.Middleware(middleware.RequireUser(h))
	}
	read := middleware.RequireUser

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Registration is done by the gateway on the caller's behalf
	mux.HandleFunc("POST /api/users", limiter.Middleware(user.Create))

	// ============================================================================
	// USER ROUTES (X-User-ID required)
	// ============================================================================

	// Account
	mux.HandleFunc("GET /api/users/me", read(user.Me))
	mux.HandleFunc("DELETE /api/users/me", write(user.DeleteMe))

	// Conversations
	mux.HandleFunc("POST /api/conversations", write(conversation.Create))
	mux.HandleFunc("GET /api/conversations", read(conversation.List))
	mux.HandleFunc("GET /api/conversations/{sessionID}", read(conversation.Get))
	mux.HandleFunc("DELETE /api/conversations/{sessionID}", write(conversation.Delete))
	mux.HandleFunc("GET /api/conversations/{sessionID}/messages", read(conversation.Messages))
	mux.HandleFunc("POST /api/conversations/{sessionID}/messages", write(conversation.AppendMessage))

	// Goals
	mux.HandleFunc("POST /api/goals", write(goal.Create))
	mux.HandleFunc("GET /api/goals", read(goal.List))
	mux.HandleFunc("GET /api/goals/{id}", read(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", write(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", write(goal.Delete))
	mux.HandleFunc("POST /api/goals/{id}/recompute", write(goal.Recompute))

	// Check-ins
	mux.HandleFunc("POST /api/goals/{id}/checkins", write(goal.RecordCheckIn))
	mux.HandleFunc("GET /api/goals/{id}/checkins", read(goal.CheckIns))
	mux.HandleFunc("PUT /api/goals/{id}/checkins/{checkinID}", write(goal.UpdateCheckIn))
	mux.HandleFunc("DELETE /api/goals/{id}/checkins/{checkinID}", write(goal.DeleteCheckIn))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Identity,
	)

	return handler
}
