package color

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartnerColorIsStable(t *testing.T) {
	assert.Equal(t, PartnerColor("alice"), PartnerColor("alice"))
	assert.Contains(t, partnerColors, PartnerColor("bob"))
}

func TestNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("FORCE_COLOR", "1")

	assert.False(t, Enabled())
	assert.Equal(t, "[alice]", PartnerPrefix("alice"))

	var buf bytes.Buffer
	Fprintln(&buf, "alice", "hello")
	assert.Equal(t, "[alice] hello\n", buf.String())
}

func TestForceColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "1")

	assert.True(t, Enabled())
	assert.Equal(t, Red+"x"+Reset, Colorize("x", Red))
}
