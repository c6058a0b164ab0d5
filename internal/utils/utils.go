package utils

import (
	"site-content-store/internal/errors"
	"site-content-store/internal/locale"

	"github.com/gin-gonic/gin"
)

// GetLocale picks the request locale: a ":locale" path param, the "locale"
// query param or the "Locale" header, in that order. An explicit value must
// be supported. Without one the Accept-Language header is negotiated.
func GetLocale(c *gin.Context, table *locale.Table) (locale.Locale, error) {
	raw := c.Param("locale")
	if raw == "" {
		raw = c.Query("locale")
	}
	if raw == "" {
		raw = c.GetHeader("Locale")
	}
	if raw == "" {
		return table.Match(c.GetHeader("Accept-Language")), nil
	}

	l, err := table.Parse(raw)
	if err != nil {
		apiErr := errors.Invalid("locale", "unsupported")
		apiErr.Internal = err
		return "", apiErr
	}
	return l, nil
}
