package utils

import (
	"sync"

	"site-content-store/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "slug" binding tag to gin's validator. It is
// safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return domain.ValidSlug(fl.Field().String())
		})
	})
}
