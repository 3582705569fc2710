package controller

import (
	"errors"
	"jojarts/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadFile forwards a multipart "file" to the image host and returns the
// fields the client then posts to /api/images. Nothing is written to the
// catalog here.
func (h *Handler) UploadFile(c *gin.Context) {
	logger := middlewares.Logger(c)

	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": MsgUploadDisabled})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": MsgFileTooLarge})
			return
		}
		logger.Debug("No upload file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingFile})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": MsgFileTooLarge})
		return
	}

	fileContent, err := file.Open()
	if err != nil {
		respondError(c, err, MsgMissingFile)
		return
	}
	defer fileContent.Close()

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.uploader.Upload(ctx, file.Filename, file.Header.Get("Content-Type"), fileContent, file.Size)
	if err != nil {
		logger.Error("Upload to image host failed", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": MsgUploadFailed})
		return
	}

	logger.Info("File uploaded", zap.String("url", result.SecureURL))
	c.JSON(http.StatusCreated, result)
}
