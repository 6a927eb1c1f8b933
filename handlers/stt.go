package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"medichat/services/speech"
	"medichat/utils"

	"github.com/gin-gonic/gin"
)

// STTHandler transcribes a short WAV recording of the patient's voice input.
func STTHandler(recognizer *speech.Recognizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		language := c.DefaultPostForm("language", "en-US")

		file, header, err := c.Request.FormFile("audio")
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
			return
		}
		defer file.Close()

		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != speech.AllowedExtension {
			utils.JSONError(c, http.StatusBadRequest, "invalid file type",
				fmt.Sprintf("expected %s, got %s", speech.AllowedExtension, ext))
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, speech.MaxFileSize))
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to read audio", err.Error())
			return
		}

		transcription, err := recognizer.Transcribe(c.Request.Context(), data, language)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "speech recognition failed", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"transcription": transcription})
	}
}
