// File: medichat/handlers/bundle.go
package handlers

import (
	consultationRepo "medichat/database/repository/consultation"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	ConsultationRepo consultationRepo.ConsultationRepository

	// Chat endpoints
	ChatMessageHandler          gin.HandlerFunc
	CreateConsultationHandler   gin.HandlerFunc
	ListConsultationsHandler    gin.HandlerFunc
	GetConsultationHandler      gin.HandlerFunc
	FinalizeConsultationHandler gin.HandlerFunc

	// Booking endpoints
	StartBookingHandler     gin.HandlerFunc
	SelectDoctorHandler     gin.HandlerFunc
	SelectSlotHandler       gin.HandlerFunc
	CancelBookingHandler    gin.HandlerFunc
	AppointmentLoginHandler gin.HandlerFunc
	RegisterDeviceHandler   gin.HandlerFunc

	// Appointment endpoints
	ListAppointmentsHandler  gin.HandlerFunc
	AppointmentStatusHandler gin.HandlerFunc

	// Media and AI endpoints
	UploadMediaHandler  gin.HandlerFunc
	AnalyzeImageHandler gin.HandlerFunc
	STTHandler          gin.HandlerFunc

	// Symptom diary endpoints
	LogSymptomHandler      gin.HandlerFunc
	ListSymptomLogsHandler gin.HandlerFunc
}
