package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****7890", MaskSecret("sid-1234567890"))
}

func TestMaskText(t *testing.T) {
	assert.Equal(t, "session ****cdef expired", MaskText("session 0123456789abcdef expired", "0123456789abcdef"))
	assert.Equal(t, "unchanged", MaskText("unchanged", ""))
}
