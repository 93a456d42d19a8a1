package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"prepTrackAPI/internal/types/problem"
	"prepTrackAPI/middleware"
)

type ProblemStatusManager interface {
	GetStatus(ctx context.Context, userID string, problemID int64) (*problem.ProblemStatus, error)
	ListStatuses(ctx context.Context, userID string) ([]*problem.ProblemStatus, error)
	UpdateStatus(ctx context.Context, userID string, problemID int64, status problem.Status) (*problem.ProblemStatus, error)
	SetFlags(ctx context.Context, userID string, problemID int64, req *problem.FlagsRequest) (*problem.ProblemStatus, error)
}

type ProblemHandler struct {
	statuses ProblemStatusManager
}

func NewProblemHandler(statuses ProblemStatusManager) *ProblemHandler {
	return &ProblemHandler{statuses: statuses}
}

// GET /problems/status
func (h *ProblemHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	statuses, err := h.statuses.ListStatuses(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list problem statuses")
		return
	}
	respondWithJSON(w, http.StatusOK, statuses)
}

// GET /problems/{problemID}/status
func (h *ProblemHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	problemID, ok := problemIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	ps, err := h.statuses.GetStatus(ctx, userID, problemID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get problem status")
		return
	}
	respondWithJSON(w, http.StatusOK, ps)
}

// PUT /problems/{problemID}/status
func (h *ProblemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	problemID, ok := problemIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	var req problem.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ps, err := h.statuses.UpdateStatus(ctx, userID, problemID, req.Status)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update problem status")
		return
	}
	respondWithJSON(w, http.StatusOK, ps)
}

// PATCH /problems/{problemID}/flags
func (h *ProblemHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	problemID, ok := problemIDFromPath(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid problem ID")
		return
	}

	var req problem.FlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ps, err := h.statuses.SetFlags(ctx, userID, problemID, &req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update problem flags")
		return
	}
	respondWithJSON(w, http.StatusOK, ps)
}
