package controller

import (
	"errors"
	"jojarts/middlewares"
	"jojarts/models"
	"jojarts/store"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListImages returns the whole gallery, newest first.
func (h *Handler) ListImages(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	images, err := h.images.List(ctx)
	if err != nil {
		respondError(c, err, MsgImageNotFound)
		return
	}

	response := make([]models.ImageResponse, 0, len(images))
	for i := range images {
		response = append(response, models.NewImageResponse(&images[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) CreateImage(c *gin.Context) {
	var req models.CreateImageRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingURL})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingURL})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	img, err := h.images.Create(ctx, req.URL, req.Label)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingURL})
			return
		}
		respondError(c, err, MsgImageNotFound)
		return
	}

	middlewares.Logger(c).Info("Image created", zap.String("id", img.ID.Hex()))
	c.JSON(http.StatusCreated, models.NewImageResponse(img))
}

// UpdateImage applies a partial update; omitted fields keep their value.
func (h *Handler) UpdateImage(c *gin.Context) {
	var patch models.ImagePatch
	if err := bindOptionalJSON(c, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidBody})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Param("id")
	img, err := h.images.Update(ctx, id, patch)
	if err != nil {
		respondError(c, err, MsgImageNotFound)
		return
	}

	middlewares.Logger(c).Info("Image updated", zap.String("id", id))
	c.JSON(http.StatusOK, models.NewImageResponse(img))
}

func (h *Handler) DeleteImage(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id, err := h.images.Remove(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, MsgImageNotFound)
		return
	}

	middlewares.Logger(c).Info("Image deleted", zap.String("id", id))
	c.JSON(http.StatusOK, models.DeleteImageResponse{ID: id})
}
