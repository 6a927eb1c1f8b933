package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	consultationRepo "medichat/database/repository/consultation"
	ai "medichat/services/intelligence"

	"medichat/models"
	"medichat/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzeImageHandler runs the vision model over an uploaded medical image
// and, when a consultation is given, records the exchange in its transcript.
func AnalyzeImageHandler(assistant *ai.Assistant, repo consultationRepo.ConsultationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "image file is required", err.Error())
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			utils.JSONError(c, http.StatusBadRequest, "invalid file type", "only images are accepted")
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to read image", err.Error())
			return
		}

		prompt := c.DefaultPostForm("prompt", "What does this medical image show?")
		imageURL := c.PostForm("imageUrl")
		consultationID := c.PostForm("consultationId")
		ctx := c.Request.Context()

		analysis, err := assistant.AnalyzeImage(ctx, prompt, contentType, data)
		if err != nil {
			getLogger(c).Error("image analysis failed", zap.Error(err))
			utils.JSONError(c, http.StatusBadGateway, "failed to analyze medical image", err.Error())
			return
		}

		if consultationID != "" {
			question := models.Message{
				ID:          uuid.New().String(),
				Role:        models.RoleUser,
				Content:     prompt,
				Timestamp:   time.Now(),
				Image:       imageURL,
				ImagePrompt: prompt,
			}
			answer := models.Message{
				ID:        uuid.New().String(),
				Role:      models.RoleAssistant,
				Content:   analysis,
				Timestamp: time.Now(),
			}
			for _, msg := range []models.Message{question, answer} {
				if err := repo.AppendMessage(ctx, consultationID, msg); err != nil {
					getLogger(c).Warn("failed to record image exchange", zap.Error(err))
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"analysis": analysis})
	}
}
