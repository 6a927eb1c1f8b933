// File: services/booking/cache.go
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medichat/models"

	"github.com/go-redis/redis/v8"
)

const (
	appointmentHashPrefix = "appointments:"
	notifiedMarkerPrefix  = "appointment:notified:"
)

// notifiedMarkerTTL scopes "already notified" markers to roughly one
// session; a fresh session may legitimately re-check an old appointment.
const notifiedMarkerTTL = 12 * time.Hour

// AppointmentCache mirrors booked appointments keyed by appointment id for
// display outside the chat, and holds the per-appointment notified markers
// the poller consults.
type AppointmentCache struct {
	client *redis.Client
}

// NewAppointmentCache returns a cache backed by Redis.
func NewAppointmentCache(client *redis.Client) *AppointmentCache {
	return &AppointmentCache{client: client}
}

// Put stores or replaces an appointment record for a user.
func (c *AppointmentCache) Put(ctx context.Context, userID string, appt models.Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}
	return c.client.HSet(ctx, appointmentHashPrefix+userID, appt.AppointmentID, data).Err()
}

// Get returns the cached appointment, or nil when absent.
func (c *AppointmentCache) Get(ctx context.Context, userID, appointmentID string) (*models.Appointment, error) {
	data, err := c.client.HGet(ctx, appointmentHashPrefix+userID, appointmentID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var appt models.Appointment
	if err := json.Unmarshal([]byte(data), &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// List returns all cached appointments for a user.
func (c *AppointmentCache) List(ctx context.Context, userID string) ([]models.Appointment, error) {
	entries, err := c.client.HGetAll(ctx, appointmentHashPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	appointments := make([]models.Appointment, 0, len(entries))
	for _, data := range entries {
		var appt models.Appointment
		if err := json.Unmarshal([]byte(data), &appt); err != nil {
			continue
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

// UpdateStatus rewrites the cached appointment's status, if cached.
func (c *AppointmentCache) UpdateStatus(ctx context.Context, userID, appointmentID, status string) error {
	appt, err := c.Get(ctx, userID, appointmentID)
	if err != nil || appt == nil {
		return err
	}
	appt.Status = status
	return c.Put(ctx, userID, *appt)
}

// MarkNotified records that the approval notification for an appointment has
// fired. The SETNX write is atomic with respect to a poll tick: it returns
// true exactly once per appointment id within the marker's lifetime.
func (c *AppointmentCache) MarkNotified(ctx context.Context, appointmentID string) (bool, error) {
	return c.client.SetNX(ctx, notifiedMarkerPrefix+appointmentID, "1", notifiedMarkerTTL).Result()
}
