package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medichat/config"
	"medichat/models"
	"medichat/services/booking"
	"medichat/services/tasks"
	"medichat/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitReminderWorker runs the async reminder worker in background.
func InitReminderWorker(notifier booking.Notifier) {
	logger := utils.GetLogger()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(notifier))

	go monitorRedisConnection()

	go func() {
		logger.Info("starting reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("reminder worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("reminder worker exhausted retries")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifier booking.Notifier) asynq.HandlerFunc {
	logger := utils.GetLogger()
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return err
		}

		body := fmt.Sprintf("Your appointment with Dr. %s is at %s today.", p.DoctorName, p.Time)
		data := map[string]string{
			"appointmentId": p.AppointmentID,
			"fireDate":      p.FireDate,
		}

		if err := notifier.Push(ctx, p.UserID, "Upcoming appointment", body, data); err != nil {
			logger.Error("failed to send reminder",
				zap.String("appointmentId", p.AppointmentID), zap.Error(err))
			return err
		}
		logger.Info("appointment reminder delivered",
			zap.String("appointmentId", p.AppointmentID))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	logger := utils.GetLogger()
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})

	ctx := context.Background()
	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("reminder queue redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
