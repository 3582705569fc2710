package controller

import (
	"errors"
	"jojarts/middlewares"
	"jojarts/models"
	"jojarts/store"
	"jojarts/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login exchanges a username and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	logger := middlewares.Logger(c)

	var req models.LoginRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		logger.Debug("Invalid login body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingCredentials})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgMissingCredentials})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	admin, err := h.admins.FindByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("Login failed: unknown user", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"message": MsgBadCredentials})
		return
	}
	if err != nil {
		respondError(c, err, MsgBadCredentials)
		return
	}

	if err := utils.ComparePass(req.Password, admin.PasswordHash); err != nil {
		logger.Warn("Login failed: wrong password", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"message": MsgBadCredentials})
		return
	}

	token, err := h.tokens.Issue(admin.ID.Hex(), admin.Username, admin.Role)
	if err != nil {
		respondError(c, err, MsgBadCredentials)
		return
	}

	logger.Info("Admin logged in", zap.String("username", admin.Username))
	c.JSON(http.StatusOK, models.LoginResponse{Token: token, Username: admin.Username})
}

// Me echoes the identity carried by the caller's token.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := middlewares.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": middlewares.MsgMissingToken})
		return
	}
	c.JSON(http.StatusOK, models.MeResponse{Username: claims.Username, Role: claims.Role})
}
