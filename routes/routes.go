package routes

import (
	"net/http"
	"time"

	"medichat/handlers"
	"medichat/middleware"
	"medichat/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers chat and consultation endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.POST("/message", hb.ChatMessageHandler)
		api.POST("/consultations", hb.CreateConsultationHandler)
		api.GET("/consultations", hb.ListConsultationsHandler)
		api.GET("/consultations/:id", hb.GetConsultationHandler)
		api.POST("/consultations/:id/finalize", hb.FinalizeConsultationHandler)
	}
}

// RegisterBookingRoutes sets up the endpoints for the in-chat booking flow.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/booking")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.POST("/start", hb.StartBookingHandler)
		api.POST("/select-doctor", hb.SelectDoctorHandler)
		api.POST("/select-slot", hb.SelectSlotHandler)
		api.POST("/cancel", hb.CancelBookingHandler)
		api.POST("/login", hb.AppointmentLoginHandler)
		api.POST("/device", hb.RegisterDeviceHandler)
	}
}

// RegisterAppointmentRoutes registers the local appointment views.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.GET("", hb.ListAppointmentsHandler)
		api.GET("/:id/status", hb.AppointmentStatusHandler)
	}
}

// RegisterMediaRoutes registers upload endpoints.
func RegisterMediaRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/media")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.POST("/upload", hb.UploadMediaHandler)
	}
}

// RegisterAIRoutes registers AI endpoints.
func RegisterAIRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/ai")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.POST("/analyze-image", hb.AnalyzeImageHandler)
		api.POST("/stt", hb.STTHandler)
	}
}

// RegisterDiaryRoutes registers symptom diary endpoints.
func RegisterDiaryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/diary")
	{
		api.Use(middleware.FirebaseAuthMiddleware(utils.AuthClient))
		api.GET("", hb.ListSymptomLogsHandler)
		api.POST("", hb.LogSymptomHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm MediChat"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())
	r.Use(utils.ErrorHandler())

	RegisterHealthRoute(r)
	RegisterChatRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterMediaRoutes(r, hb)
	RegisterAIRoutes(r, hb)
	RegisterDiaryRoutes(r, hb)
}
