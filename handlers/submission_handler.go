package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"prepTrackAPI/internal/types/language"
	"prepTrackAPI/internal/types/submission"
	"prepTrackAPI/middleware"
)

type SubmissionRecorder interface {
	RecordSubmission(ctx context.Context, userID string, req *submission.CreateSubmissionRequest) (*submission.Submission, error)
}

type LanguageStatsProvider interface {
	GetLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error)
	SyncLanguageStats(ctx context.Context, userID string) ([]*language.Stat, error)
}

type SubmissionHandler struct {
	submissions SubmissionRecorder
	languages   LanguageStatsProvider
}

func NewSubmissionHandler(submissions SubmissionRecorder, languages LanguageStatsProvider) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, languages: languages}
}

// POST /submissions
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req submission.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.submissions.RecordSubmission(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to record submission")
		return
	}
	respondWithJSON(w, http.StatusCreated, sub)
}

// GET /languages/stats
func (h *SubmissionHandler) GetLanguageStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	list, err := h.languages.GetLanguageStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get language stats")
		return
	}
	if list == nil {
		list = []*language.Stat{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

// POST /languages/stats/sync
func (h *SubmissionHandler) SyncLanguageStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	list, err := h.languages.SyncLanguageStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to sync language stats")
		return
	}
	if list == nil {
		list = []*language.Stat{}
	}
	respondWithJSON(w, http.StatusOK, list)
}
