package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "my-first-story", Slugify("My First Story"))
	assert.Equal(t, "erp-in-2024", Slugify("  ERP in 2024!  "))
	assert.True(t, ValidSlug(Slugify("Hello, World")))
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("masterclass-2024"))
	assert.False(t, ValidSlug("-leading"))
	assert.False(t, ValidSlug("double--dash"))
	assert.False(t, ValidSlug("Upper"))
	assert.False(t, ValidSlug(""))
	assert.False(t, ValidSlug(strings.Repeat("a", 201)))
}

func TestIsRichContent(t *testing.T) {
	assert.True(t, IsRichContent(EmptyRichContent))
	assert.True(t, IsRichContent(RichContent(` {"root":{}} `)))
	assert.False(t, IsRichContent(RichContent(`[]`)))
	assert.False(t, IsRichContent(RichContent(`{"root":`)))
	assert.False(t, IsRichContent(nil))
}
