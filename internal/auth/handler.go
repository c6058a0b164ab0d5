package auth

import (
	"log/slog"
	"net/http"

	"site-content-store/internal/errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler exchanges the admin password for a session token.
type Handler struct {
	issuer       *Issuer
	passwordHash []byte
	logger       *slog.Logger
}

func NewHandler(issuer *Issuer, passwordHash string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{issuer: issuer, passwordHash: []byte(passwordHash), logger: logger}
}

// HashPassword is used at startup when only a plain ADMIN_PASSWORD is configured.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

type FormLogin struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if len(h.passwordHash) == 0 {
		c.Error(errors.Unauthorized("Admin login is disabled", nil))
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(form.Password)); err != nil {
		h.logger.Warn("admin login rejected", slog.String("ip", c.ClientIP()))
		c.Error(errors.Unauthorized("Wrong password", err))
		return
	}

	token, err := h.issuer.GenerateAdminToken()
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}
