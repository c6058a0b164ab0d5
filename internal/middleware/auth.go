package middleware

import (
	"strings"

	"site-content-store/internal/errors"

	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	VerifyAdminToken(token string) error
}

// AdminAuth gates the admin write routes.
type AdminAuth struct {
	Verifier TokenVerifier
}

func (m *AdminAuth) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if err := m.Verifier.VerifyAdminToken(token); err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		ctx.Set("admin", true)
		ctx.Next()
	}
}
