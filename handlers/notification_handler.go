package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"prepTrackAPI/internal/notification"
	"prepTrackAPI/middleware"
)

type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID string, req notification.RegisterDeviceRequest) error
}

type NotificationHandler struct {
	devices DeviceRegistrar
}

func NewNotificationHandler(devices DeviceRegistrar) *NotificationHandler {
	return &NotificationHandler{devices: devices}
}

// POST /notifications/register-device
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.devices.RegisterDevice(ctx, userID, req); err != nil {
		respondWithServiceError(w, err, "Failed to register device")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Device registered successfully",
	})
}
