package handlers

import (
	"context"
	"net/http"
	"time"

	"prepTrackAPI/internal/types/syncjob"
	"prepTrackAPI/middleware"
)

type SyncJobLister interface {
	ListJobs(ctx context.Context, userID string, status syncjob.Status) ([]*syncjob.Job, error)
}

type SyncHandler struct {
	jobs SyncJobLister
}

func NewSyncHandler(jobs SyncJobLister) *SyncHandler {
	return &SyncHandler{jobs: jobs}
}

// GET /sync/jobs?status=failed
func (h *SyncHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status := syncjob.Status(r.URL.Query().Get("status"))
	jobs, err := h.jobs.ListJobs(ctx, userID, status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list sync jobs")
		return
	}
	respondWithJSON(w, http.StatusOK, jobs)
}
