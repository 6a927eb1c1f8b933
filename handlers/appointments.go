package handlers

import (
	"net/http"

	"medichat/services/appointment"
	"medichat/services/booking"
	"medichat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListAppointmentsHandler returns the user's locally cached appointments.
func ListAppointmentsHandler(cache *booking.AppointmentCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		appointments, err := cache.List(c.Request.Context(), uid)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to load appointments", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": appointments})
	}
}

// AppointmentStatusHandler reads the live status of one appointment from the
// external system, refreshing the local cache.
func AppointmentStatusHandler(gateway appointment.Gateway, cache *booking.AppointmentCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		appointmentID := c.Param("id")
		ctx := c.Request.Context()

		status, err := gateway.CheckAppointmentStatus(ctx, uid, appointmentID)
		if err != nil {
			respondBookingError(c, err)
			return
		}
		if err := cache.UpdateStatus(ctx, uid, appointmentID, status.Status); err != nil {
			getLogger(c).Warn("failed to refresh cached appointment", zap.Error(err))
		}
		c.JSON(http.StatusOK, status)
	}
}
