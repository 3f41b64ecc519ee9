package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[0.5,-1,0.25]", vectorToString([]float32{0.5, -1, 0.25}))
	assert.Equal(t, "[]", vectorToString(nil))
}

func TestParseVector_RoundTrip(t *testing.T) {
	original := []float32{0.125, -0.5, 3, 0}
	parsed, err := parseVector(vectorToString(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseVector_Invalid(t *testing.T) {
	_, err := parseVector("[1,not-a-number]")
	assert.Error(t, err)
}

func TestParseVector_Empty(t *testing.T) {
	parsed, err := parseVector("[]")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}
