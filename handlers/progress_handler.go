package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"prepTrackAPI/internal/types/progress"
	"prepTrackAPI/internal/types/topic"
	"prepTrackAPI/middleware"
)

type ProgressProvider interface {
	GetGlobalProgress(ctx context.Context, userID string) (*progress.GlobalProgress, error)
	GetTopicStats(ctx context.Context, userID string) ([]topic.Stat, error)
	ListCompanyProgress(ctx context.Context, userID string) ([]*progress.CompanyProgress, error)
	GetCompanyProgress(ctx context.Context, userID, companyID string) (*progress.CompanyProgress, error)
	SyncCompanyProgress(ctx context.Context, userID, companyID string) (*progress.CompanyProgress, error)
}

type ProgressHandler struct {
	progress ProgressProvider
}

func NewProgressHandler(progress ProgressProvider) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /progress
func (h *ProgressHandler) GetGlobalProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.progress.GetGlobalProgress(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get progress")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// GET /progress/topics
func (h *ProgressHandler) GetTopicStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	topics, err := h.progress.GetTopicStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get topic stats")
		return
	}
	if topics == nil {
		topics = []topic.Stat{}
	}
	respondWithJSON(w, http.StatusOK, topics)
}

// GET /companies/progress
func (h *ProgressHandler) ListCompanyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	list, err := h.progress.ListCompanyProgress(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list company progress")
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// GET /companies/{companyID}/progress
func (h *ProgressHandler) GetCompanyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.progress.GetCompanyProgress(ctx, userID, mux.Vars(r)["companyID"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to get company progress")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// POST /companies/{companyID}/progress/sync
func (h *ProgressHandler) SyncCompanyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.progress.SyncCompanyProgress(ctx, userID, mux.Vars(r)["companyID"])
	if err != nil {
		respondWithServiceError(w, err, "Failed to sync company progress")
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}
