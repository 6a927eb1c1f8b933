// File: handlers/diary.go
package handlers

import (
	"net/http"
	"strings"

	symptomLogRepo "medichat/database/repository/symptomlog"
	"medichat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogSymptomHandler appends an entry to the caller's symptom diary.
func LogSymptomHandler(repo symptomLogRepo.SymptomLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Symptom string `json:"symptom" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}
		symptom := strings.TrimSpace(input.Symptom)
		if symptom == "" {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", "symptom must not be empty")
			return
		}
		uid := c.GetString("uid")

		entry, err := repo.Log(c.Request.Context(), uid, symptom)
		if err != nil {
			getLogger(c).Error("symptom log write failed", zap.String("uid", uid), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to log symptom", err.Error())
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// ListSymptomLogsHandler returns the caller's symptom diary, newest first.
func ListSymptomLogsHandler(repo symptomLogRepo.SymptomLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("uid")

		logs, err := repo.ListByUser(c.Request.Context(), uid)
		if err != nil {
			getLogger(c).Error("symptom log read failed", zap.String("uid", uid), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "failed to load symptom diary", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
