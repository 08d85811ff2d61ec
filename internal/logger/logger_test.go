package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesAppName(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json", "crackcu")

	log.Info().Int("exam_id", 4).Msg("graded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "crackcu", line["app"])
	assert.Equal(t, "graded", line["message"])
	assert.EqualValues(t, 4, line["exam_id"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, "shouting", "json", "crackcu")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
