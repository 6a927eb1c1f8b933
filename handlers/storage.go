package handlers

import (
	"net/http"
	"strings"

	"medichat/services/storage"
	"medichat/utils"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// UploadMediaHandler hosts a patient-uploaded image and returns its public
// URL for embedding in chat messages.
func UploadMediaHandler(media storage.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "file is required", err.Error())
			return
		}
		defer file.Close()

		if header.Size > maxUploadSize {
			utils.JSONError(c, http.StatusBadRequest, "file too large", "maximum upload size is 10MB")
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			utils.JSONError(c, http.StatusBadRequest, "invalid file type", "only images are accepted")
			return
		}

		uid := c.GetString("uid")
		upload, err := media.UploadImage(c.Request.Context(), file, "medichat/"+uid)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "upload failed", err.Error())
			return
		}
		c.JSON(http.StatusOK, upload)
	}
}
