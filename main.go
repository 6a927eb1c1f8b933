// File: medichat/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medichat/config"
	"medichat/cron"
	"medichat/database"
	consultationRepo "medichat/database/repository/consultation"
	symptomLogRepo "medichat/database/repository/symptomlog"
	"medichat/handlers"
	"medichat/routes"
	"medichat/services/appointment"
	"medichat/services/booking"
	ai "medichat/services/intelligence"
	"medichat/services/speech"
	"medichat/services/storage"
	"medichat/services/tasks"
	"medichat/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	cld, err := cloudinary.NewFromParams(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary: %v", err)
	}
	mediaService := storage.NewMediaService(cld,
		config.AppConfig.CloudinaryCloudName, config.AppConfig.CloudinaryAPISecret)

	recognizer, err := speech.NewRecognizer(context.Background(), config.AppConfig.GoogleCredentialsFile)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize speech recognizer: %v", err)
	}
	defer recognizer.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// repositories.
	repo := consultationRepo.NewMongoConsultationRepo()
	diaryRepo := symptomLogRepo.NewMongoSymptomLogRepo()

	// services.
	creds := appointment.NewRedisCredentialStore(utils.GetCacheClient())
	gateway := appointment.NewGateway(config.AppConfig.AppointmentAPIBaseURL, creds)

	flowStore := booking.NewRedisFlowStore(utils.GetFlowCacheClient(), 30*time.Minute)
	appointmentCache := booking.NewAppointmentCache(utils.GetCacheClient())
	notifier := booking.NewFCMNotifier(utils.FCMClient, utils.GetCacheClient())

	poller := booking.NewStatusPoller(gateway, repo, appointmentCache, notifier,
		config.AppConfig.AppointmentPollInterval, config.AppConfig.AppointmentPollWindow)
	defer poller.Stop()

	reminderScheduler := tasks.NewReminderScheduler()
	defer reminderScheduler.Close()
	poller.SetReminderScheduler(reminderScheduler)

	controller := booking.NewController(gateway, repo, flowStore, appointmentCache, poller)

	ctxStore := ai.NewRedisContextStore(utils.GetCacheClient(), 30*time.Minute)
	assistant := ai.NewAssistant(ai.NewGeminiClient(config.AppConfig.GeminiAPIKey), ctxStore)

	cron.InitReminderWorker(notifier)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ConsultationRepo: repo,

		// Chat endpoints.
		ChatMessageHandler:          handlers.ChatMessageHandler(repo, assistant, controller),
		CreateConsultationHandler:   handlers.CreateConsultationHandler(repo),
		ListConsultationsHandler:    handlers.ListConsultationsHandler(repo),
		GetConsultationHandler:      handlers.GetConsultationHandler(repo, controller),
		FinalizeConsultationHandler: handlers.FinalizeConsultationHandler(repo, assistant),

		// Booking endpoints.
		StartBookingHandler:     handlers.StartBookingHandler(controller),
		SelectDoctorHandler:     handlers.SelectDoctorHandler(controller),
		SelectSlotHandler:       handlers.SelectSlotHandler(controller),
		CancelBookingHandler:    handlers.CancelBookingHandler(controller),
		AppointmentLoginHandler: handlers.AppointmentLoginHandler(creds),
		RegisterDeviceHandler:   handlers.RegisterDeviceHandler(notifier),

		// Appointment endpoints.
		ListAppointmentsHandler:  handlers.ListAppointmentsHandler(appointmentCache),
		AppointmentStatusHandler: handlers.AppointmentStatusHandler(gateway, appointmentCache),

		// Media and AI endpoints.
		UploadMediaHandler:  handlers.UploadMediaHandler(mediaService),
		AnalyzeImageHandler: handlers.AnalyzeImageHandler(assistant, repo),
		STTHandler:          handlers.STTHandler(recognizer),

		// Symptom diary endpoints.
		LogSymptomHandler:      handlers.LogSymptomHandler(diaryRepo),
		ListSymptomLogsHandler: handlers.ListSymptomLogsHandler(diaryRepo),
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
