package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/services"
)

type TokenHandler struct {
	tokenService *services.TokenService
}

func NewTokenHandler(tokenService *services.TokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// CreateToken mints a JWT. Only the master token may call it.
func (h *TokenHandler) CreateToken(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
		return
	}

	if !h.tokenService.ValidateMasterToken(token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid master token"})
		return
	}

	var req models.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Type != models.TokenTypeJWT {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only JWT tokens are supported"})
		return
	}

	tokenString, err := h.tokenService.CreateJWTToken(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, models.CreateTokenResponse{
		Token:     tokenString,
		Type:      req.Type,
		Sub:       req.Sub,
		Access:    req.Access,
		Scope:     req.Scope,
		ExpiresAt: req.ExpiresAt,
	})
}
