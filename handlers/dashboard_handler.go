package handlers

import (
	"context"
	"net/http"
	"time"

	"prepTrackAPI/internal/types/dashboard"
	"prepTrackAPI/middleware"
)

type DashboardProvider interface {
	GetDashboard(ctx context.Context, userID string) (*dashboard.Dashboard, error)
}

type DashboardHandler struct {
	dashboards DashboardProvider
}

func NewDashboardHandler(dashboards DashboardProvider) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// GET /dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	d, err := h.dashboards.GetDashboard(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get dashboard")
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}
