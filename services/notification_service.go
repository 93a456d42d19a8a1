package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"prepTrackAPI/internal/db"
	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/notification"
	"prepTrackAPI/internal/types/streak"
)

// PushSender is satisfied by *notification.FCMService.
type PushSender interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

type NotificationService struct {
	db   db.Querier
	log  *logger.Logger
	push PushSender
}

func NewNotificationService(q db.Querier, log *logger.Logger, push PushSender) *NotificationService {
	return &NotificationService{
		db:   q,
		log:  log.With("service", "NotificationService"),
		push: push,
	}
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID string, req notification.RegisterDeviceRequest) error {
	if userID == "" {
		return missing("user_id")
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return missing("token")
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if platform == "" {
		platform = "android"
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, token)
	DO UPDATE SET platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// NotifyStreakMilestone pushes a congratulation to every registered device.
// Users without devices, or a server without FCM, are skipped silently.
func (s *NotificationService) NotifyStreakMilestone(ctx context.Context, m streak.Milestone) error {
	if s.push == nil {
		s.log.Debug("skipping milestone push, no provider", "user_id", m.UserID, "days", m.Days)
		return nil
	}

	tokens, err := s.deviceTokens(ctx, m.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	title := fmt.Sprintf("%d day streak!", m.Days)
	body := fmt.Sprintf("You have solved a problem %d days in a row. Keep it going.", m.Days)
	data := map[string]string{
		"type": "streak_milestone",
		"days": strconv.Itoa(m.Days),
	}
	if err := s.push.SendPush(ctx, tokens, title, body, data); err != nil {
		return fmt.Errorf("failed to send milestone push: %w", err)
	}
	s.log.Info("milestone push sent", "user_id", m.UserID, "days", m.Days, "devices", len(tokens))
	return nil
}
