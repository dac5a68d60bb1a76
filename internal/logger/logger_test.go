package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "prod")

	log.Info("item created", "item_id", 7)
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "item created", entry["msg"])
	assert.Equal(t, float64(7), entry["item_id"])
	assert.Equal(t, "lost-and-found-api", entry["service"])
}

func TestNewWithWriter_TextLocally(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "local")

	log.Debug("visible", "user_id", 3)

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "user_id=3")
}
