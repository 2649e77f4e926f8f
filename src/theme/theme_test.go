package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	dark, err := Lookup("dark")
	require.NoError(t, err)
	assert.Equal(t, "monokai", dark.CodeStyle)

	light, err := Lookup("light")
	require.NoError(t, err)
	assert.Equal(t, "light", light.Name)

	auto, err := Lookup("auto")
	require.NoError(t, err)
	assert.Contains(t, []string{"dark", "light"}, auto.Name)

	_, err = Lookup("neon")
	assert.Error(t, err)
}

func TestSetTheme(t *testing.T) {
	defer SetTheme(CurrentTheme)
	SetTheme(Light)
	assert.Equal(t, Light, CurrentTheme)
}
