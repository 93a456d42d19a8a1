package handlers

import (
	"context"
	"net/http"
	"time"

	"prepTrackAPI/internal/types/streak"
	"prepTrackAPI/middleware"
)

type StreakProvider interface {
	GetStreak(ctx context.Context, userID string) (streak.Summary, error)
	Recompute(ctx context.Context, userID string) (streak.Summary, error)
}

type StreakHandler struct {
	streaks StreakProvider
}

func NewStreakHandler(streaks StreakProvider) *StreakHandler {
	return &StreakHandler{streaks: streaks}
}

// GET /streak
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	summary, err := h.streaks.GetStreak(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get streak")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// POST /streak/recompute
func (h *StreakHandler) RecomputeStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	summary, err := h.streaks.Recompute(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to recompute streak")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}
