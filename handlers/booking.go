package handlers

import (
	"errors"
	"net/http"
	"time"

	"medichat/models"
	"medichat/services/appointment"
	"medichat/services/booking"
	"medichat/utils"

	"github.com/gin-gonic/gin"
)

// StartBookingHandler begins the in-chat booking flow for a consultation.
func StartBookingHandler(controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ConsultationID string `json:"consultationId" binding:"required"`
			Specialty      string `json:"specialty"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		uid := c.GetString("uid")

		reply, err := controller.Start(c.Request.Context(), uid, input.ConsultationID, input.Specialty)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

// SelectDoctorHandler records the chosen doctor and moves the flow forward.
func SelectDoctorHandler(controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ConsultationID string `json:"consultationId" binding:"required"`
			DoctorID       string `json:"doctorId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		uid := c.GetString("uid")

		reply, err := controller.SelectDoctor(c.Request.Context(), uid, input.ConsultationID, input.DoctorID)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

// SelectSlotHandler records the chosen slot and submits the booking request.
func SelectSlotHandler(controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ConsultationID string      `json:"consultationId" binding:"required"`
			Slot           models.Slot `json:"slot" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		uid := c.GetString("uid")

		reply, err := controller.SelectSlot(c.Request.Context(), uid, input.ConsultationID, input.Slot)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

// CancelBookingHandler abandons the booking flow. An already-submitted
// appointment is unaffected.
func CancelBookingHandler(controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			ConsultationID string `json:"consultationId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}

		reply, err := controller.Cancel(c.Request.Context(), input.ConsultationID)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

// AppointmentLoginHandler stores the bearer token obtained from the external
// appointment system, unblocking the booking flow for this user.
func AppointmentLoginHandler(creds *appointment.RedisCredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Token     string `json:"token" binding:"required"`
			TTLMillis int64  `json:"ttlMillis"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		uid := c.GetString("uid")

		ttl := 24 * time.Hour
		if input.TTLMillis > 0 {
			ttl = time.Duration(input.TTLMillis) * time.Millisecond
		}
		if err := creds.StoreToken(c.Request.Context(), uid, input.Token, ttl); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to store token", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// RegisterDeviceHandler saves the caller's FCM device token for push
// notifications.
func RegisterDeviceHandler(notifier *booking.FCMNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		uid := c.GetString("uid")

		if err := notifier.RegisterDevice(c.Request.Context(), uid, input.Token); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to register device", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// respondBookingError maps flow and gateway errors onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingInProgress):
		utils.JSONError(c, http.StatusConflict, "booking already in progress", err.Error())
	case booking.IsFlowStepError(err):
		utils.JSONError(c, http.StatusConflict, "unexpected booking step", err.Error())
	case errors.Is(err, appointment.ErrAuthRequired):
		utils.JSONError(c, http.StatusUnauthorized, "appointment system login required", err.Error())
	case appointment.IsInvalidArgument(err):
		utils.JSONError(c, http.StatusBadRequest, "invalid booking request", err.Error())
	case appointment.IsGatewayError(err):
		utils.JSONError(c, http.StatusBadGateway, "appointment system error", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "booking failed", err.Error())
	}
}
