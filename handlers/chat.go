package handlers

import (
	"errors"
	"net/http"
	"time"

	consultationRepo "medichat/database/repository/consultation"
	ai "medichat/services/intelligence"

	"medichat/models"
	"medichat/services/booking"
	"medichat/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatMessageHandler handles one plain chat turn: persist the user's
// message, generate the assistant reply, persist it, and record any medical
// insights. Plain chat is rejected while a booking flow is active.
func ChatMessageHandler(repo consultationRepo.ConsultationRepository, assistant *ai.Assistant, controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		if req.Text == "" {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", "text is required")
			return
		}
		uid := c.GetString("uid")
		ctx := c.Request.Context()

		userMsg := models.Message{
			ID:          uuid.New().String(),
			Role:        models.RoleUser,
			Content:     req.Text,
			Timestamp:   time.Now(),
			Image:       req.Image,
			ImagePrompt: req.ImagePrompt,
		}

		consultationID := req.ConsultationID
		if consultationID == "" {
			id, err := repo.Create(ctx, uid, &userMsg)
			if err != nil {
				utils.JSONError(c, http.StatusInternalServerError, "failed to create consultation", err.Error())
				return
			}
			consultationID = id
		} else {
			if err := controller.Guard(ctx, consultationID); err != nil {
				if errors.Is(err, booking.ErrBookingInProgress) {
					c.JSON(http.StatusOK, models.ChatReply{
						ConsultationID: consultationID,
						Messages: []models.Message{{
							ID:        uuid.New().String(),
							Role:      models.RoleAssistant,
							Content:   "Please finish or cancel the current booking first.",
							Timestamp: time.Now(),
						}},
					})
					return
				}
				utils.JSONError(c, http.StatusInternalServerError, "failed to read booking state", err.Error())
				return
			}
			if err := repo.AppendMessage(ctx, consultationID, userMsg); err != nil {
				utils.JSONError(c, http.StatusInternalServerError, "failed to save message", err.Error())
				return
			}
		}

		reply, err := assistant.Respond(ctx, consultationID, req.Text)
		if err != nil {
			getLogger(c).Error("assistant failed", zap.Error(err))
			utils.JSONError(c, http.StatusBadGateway, "failed to get AI response", err.Error())
			return
		}
		if err := repo.AppendMessage(ctx, consultationID, reply); err != nil {
			getLogger(c).Error("failed to save assistant reply", zap.Error(err))
		}

		diagnosis, recommendations := assistant.Insights(reply.Content)
		if diagnosis != "" || recommendations != "" {
			if err := repo.UpdateInsights(ctx, consultationID, diagnosis, recommendations); err != nil {
				getLogger(c).Warn("failed to record insights", zap.Error(err))
			}
		}

		out := models.ChatReply{
			ConsultationID: consultationID,
			Messages:       []models.Message{userMsg, reply},
		}
		if reply.SuggestsBooking {
			out.Actions = append(out.Actions, models.ChatAction{
				Label: "Book an appointment",
				Type:  "start_booking",
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// CreateConsultationHandler starts an empty consultation.
func CreateConsultationHandler(repo consultationRepo.ConsultationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		id, err := repo.Create(c.Request.Context(), uid, nil)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to create consultation", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"consultationId": id})
	}
}

// ListConsultationsHandler returns the user's consultations, most recent
// first.
func ListConsultationsHandler(repo consultationRepo.ConsultationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		consultations, err := repo.GetByUser(c.Request.Context(), uid)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to load consultations", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"consultations": consultations})
	}
}

// GetConsultationHandler returns one consultation with its deduplicated
// transcript, re-arming the approval poller for any still-pending booking.
func GetConsultationHandler(repo consultationRepo.ConsultationRepository, controller *booking.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		ctx := c.Request.Context()

		consultation, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, consultationRepo.ErrNotFound) {
				utils.JSONError(c, http.StatusNotFound, "consultation not found", "")
				return
			}
			utils.JSONError(c, http.StatusInternalServerError, "failed to load consultation", err.Error())
			return
		}
		if consultation.UserID != uid {
			utils.JSONError(c, http.StatusForbidden, "not your consultation", "")
			return
		}

		controller.Resume(ctx, uid, consultation)

		messages, err := repo.LoadMessages(ctx, consultation.ID)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to load messages", err.Error())
			return
		}

		step, err := controller.Step(ctx, consultation.ID)
		if err != nil {
			getLogger(c).Warn("failed to read booking step", zap.Error(err))
			step = models.StepIdle
		}
		c.JSON(http.StatusOK, gin.H{
			"consultation": consultation,
			"messages":     messages,
			"step":         step,
		})
	}
}

// FinalizeConsultationHandler marks a consultation completed, recording the
// extracted diagnosis and recommendations from its final assistant message.
func FinalizeConsultationHandler(repo consultationRepo.ConsultationRepository, assistant *ai.Assistant) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")
		ctx := c.Request.Context()

		consultation, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, consultationRepo.ErrNotFound) {
				utils.JSONError(c, http.StatusNotFound, "consultation not found", "")
				return
			}
			utils.JSONError(c, http.StatusInternalServerError, "failed to load consultation", err.Error())
			return
		}
		if consultation.UserID != uid {
			utils.JSONError(c, http.StatusForbidden, "not your consultation", "")
			return
		}

		messages, err := repo.LoadMessages(ctx, consultation.ID)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to load messages", err.Error())
			return
		}

		var diagnosis, recommendations string
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == models.RoleAssistant {
				diagnosis, recommendations = assistant.Insights(messages[i].Content)
				break
			}
		}

		if err := repo.Finalize(ctx, consultation.ID, messages, diagnosis, recommendations); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to finalize consultation", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          models.ConsultationCompleted,
			"diagnosis":       diagnosis,
			"recommendations": recommendations,
		})
	}
}
