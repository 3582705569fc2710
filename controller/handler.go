package controller

import (
	"context"
	"errors"
	"io"
	"jojarts/middlewares"
	"jojarts/models"
	"jojarts/store"
	"jojarts/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	MsgMissingCredentials = "Hiányzó felhasználónév vagy jelszó."
	MsgBadCredentials     = "Hibás felhasználónév vagy jelszó."
	MsgMissingURL         = "Hiányzó kép URL."
	MsgEmptyURL           = "A kép URL nem lehet üres."
	MsgImageNotFound      = "Kép nem található."
	MsgInvalidBody        = "Érvénytelen kérés."
	MsgMissingFile        = "Hiányzó fájl."
	MsgFileTooLarge       = "A fájl túl nagy."
	MsgUploadDisabled     = "A feltöltés nincs beállítva."
	MsgUploadFailed       = "Sikertelen feltöltés."
	MsgServerError        = "Szerverhiba."
)

// Credentials looks up administrators for login.
type Credentials interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID, username, role string) (string, error)
}

// Catalog is the gallery image collection.
type Catalog interface {
	List(ctx context.Context) ([]models.Image, error)
	Create(ctx context.Context, url, label string) (*models.Image, error)
	Update(ctx context.Context, id string, patch models.ImagePatch) (*models.Image, error)
	Remove(ctx context.Context, id string) (string, error)
}

// Uploader pushes image bytes to the image host.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (*models.UploadResult, error)
}

// Handler serves the gallery API.
type Handler struct {
	admins    Credentials
	tokens    TokenIssuer
	images    Catalog
	uploader  Uploader
	timeout   time.Duration
	maxUpload int64
	validate  *validator.Validate
}

type Option func(*Handler)

// WithUploader enables POST /api/uploads; maxBytes caps the file size.
func WithUploader(u Uploader, maxBytes int64) Option {
	return func(h *Handler) {
		h.uploader = u
		h.maxUpload = maxBytes
	}
}

// WithTimeout bounds each storage call.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func NewHandler(admins Credentials, tokens TokenIssuer, images Catalog, opts ...Option) *Handler {
	h := &Handler{
		admins:    admins,
		tokens:    tokens,
		images:    images,
		timeout:   10 * time.Second,
		maxUpload: 10 << 20,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// respondError maps domain errors to status codes. Anything unrecognised is
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgEmptyURL})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMsg})
	case errors.Is(err, utils.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": middlewares.MsgInvalidToken})
	default:
		middlewares.Logger(c).Error("Request failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": MsgServerError})
	}
}

// bindOptionalJSON decodes a JSON body, treating an empty body as {}.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
