// File: services/booking/notifier.go
package booking

import (
	"context"
	"fmt"

	"medichat/models"
	"medichat/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const fcmTokenPrefix = "fcm:token:"

// Notifier delivers push notifications to the user's device: the one-shot
// approval event and scheduled appointment reminders.
type Notifier interface {
	NotifyApproval(ctx context.Context, userID string, appt models.Appointment) error
	Push(ctx context.Context, userID, title, body string, data map[string]string) error
}

// FCMNotifier sends approval notifications through Firebase Cloud Messaging.
// Device tokens are registered by the client under a fixed Redis key.
type FCMNotifier struct {
	client *messaging.Client
	redis  *redis.Client
	logger *zap.Logger
}

// NewFCMNotifier returns a Notifier backed by FCM.
func NewFCMNotifier(client *messaging.Client, redisClient *redis.Client) *FCMNotifier {
	return &FCMNotifier{
		client: client,
		redis:  redisClient,
		logger: utils.GetLogger(),
	}
}

func (n *FCMNotifier) NotifyApproval(ctx context.Context, userID string, appt models.Appointment) error {
	token, err := n.redis.Get(ctx, fcmTokenPrefix+userID).Result()
	if err == redis.Nil || token == "" {
		// No registered device; the transcript message still carries the update.
		n.logger.Debug("no FCM token for user", zap.String("userId", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read FCM token: %w", err)
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "Appointment approved",
			Body:  fmt.Sprintf("Dr. %s has approved your appointment for %s at %s.", appt.DoctorName, appt.Date, appt.Time),
		},
		Data: map[string]string{
			"appointmentId": appt.AppointmentID,
			"status":        appt.Status,
		},
	}
	if _, err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send approval notification: %w", err)
	}
	return nil
}

// Push sends an arbitrary notification to the user's registered device.
func (n *FCMNotifier) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	token, err := n.redis.Get(ctx, fcmTokenPrefix+userID).Result()
	if err == redis.Nil || token == "" {
		n.logger.Debug("no FCM token for user", zap.String("userId", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read FCM token: %w", err)
	}
	msg := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	}
	if _, err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// RegisterDevice stores the user's FCM device token for later pushes.
func (n *FCMNotifier) RegisterDevice(ctx context.Context, userID, token string) error {
	if err := n.redis.Set(ctx, fcmTokenPrefix+userID, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to store FCM token: %w", err)
	}
	return nil
}
