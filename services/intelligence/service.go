// File: services/intelligence/service.go
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medichat/models"
	"medichat/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const chatPromptHeader = `You are an AI medical assistant. Your role is to:
1. Ask relevant questions about symptoms
2. Provide preliminary analysis
3. Recommend appropriate medications and treatments
4. Give recovery procedures and lifestyle advice
5. Always remind users to seek professional medical help for serious conditions`

const imagePromptTemplate = `You are a medical professional analyzing this medical image. The patient asks: %q

Please provide a comprehensive analysis covering: the exact type of medical
image, the anatomical region examined, key findings, clinical interpretation,
recommendations for follow-up, and any limitations of the analysis. Be
thorough and precise while explaining in patient-friendly terms.`

// Assistant produces the assistant side of a consultation: text replies and
// inline medical-image analysis, post-processed for chat display.
type Assistant struct {
	gemini   *GeminiClient
	ctxStore *RedisContextStore
	logger   *zap.Logger
}

func NewAssistant(gemini *GeminiClient, ctxStore *RedisContextStore) *Assistant {
	return &Assistant{
		gemini:   gemini,
		ctxStore: ctxStore,
		logger:   utils.GetLogger(),
	}
}

// Respond generates the assistant reply for one user turn. The cleaned reply
// carries SuggestsBooking when it hints the patient should see a doctor.
func (a *Assistant) Respond(ctx context.Context, consultationID, text string) (models.Message, error) {
	turns, err := a.ctxStore.Get(ctx, consultationID)
	if err != nil {
		a.logger.Warn("failed to load chat context", zap.Error(err))
	}

	raw, err := a.gemini.GenerateContent(ctx, buildChatPrompt(turns, text))
	if err != nil {
		return models.Message{}, fmt.Errorf("assistant reply: %w", err)
	}

	content := CleanResponse(raw)
	reply := models.Message{
		ID:              uuid.New().String(),
		Role:            models.RoleAssistant,
		Content:         content,
		Timestamp:       time.Now(),
		SuggestsBooking: SuggestsBooking(content),
	}

	if err := a.ctxStore.Append(ctx, consultationID,
		ChatTurn{Role: models.RoleUser, Content: text},
		ChatTurn{Role: models.RoleAssistant, Content: content},
	); err != nil {
		a.logger.Warn("failed to save chat context", zap.Error(err))
	}
	return reply, nil
}

// AnalyzeImage runs the vision model over an uploaded medical image and
// returns the cleaned analysis text.
func (a *Assistant) AnalyzeImage(ctx context.Context, userPrompt, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload")
	}
	raw, err := a.gemini.GenerateFromImage(ctx, fmt.Sprintf(imagePromptTemplate, userPrompt), mimeType, data)
	if err != nil {
		return "", fmt.Errorf("image analysis: %w", err)
	}
	return CleanResponse(raw), nil
}

// Insights extracts the diagnosis and recommendation snippets recorded on a
// consultation when it is finalized.
func (a *Assistant) Insights(content string) (diagnosis, recommendations string) {
	return ExtractDiagnosis(content), ExtractRecommendations(content)
}

func buildChatPrompt(turns []ChatTurn, text string) string {
	var sb strings.Builder
	sb.WriteString(chatPromptHeader)
	sb.WriteString("\n\n")
	if len(turns) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range turns {
			sb.WriteString(t.Role)
			sb.WriteString(": ")
			sb.WriteString(t.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("User message: ")
	sb.WriteString(text)
	sb.WriteString("\n\nPlease respond in a professional, caring manner.")
	return sb.String()
}
