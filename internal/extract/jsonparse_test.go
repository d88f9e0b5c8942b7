package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Strict(t *testing.T) {
	var out map[string]any
	require.NoError(t, ParseJSON(`{"a": 1}`, &out))
	assert.Equal(t, 1.0, out["a"])
}

func TestParseJSON_CodeFence(t *testing.T) {
	var out map[string]any
	require.NoError(t, ParseJSON("```json\n{\"a\": \"b\"}\n```", &out))
	assert.Equal(t, "b", out["a"])
}

func TestParseJSON_RecoversFirstBalancedObject(t *testing.T) {
	raw := `Sure! Here is the result: {"text": "uses } and { in a string", "n": {"x": 2}} and also {"other": true}`
	var out struct {
		Text string         `json:"text"`
		N    map[string]int `json:"n"`
	}
	require.NoError(t, ParseJSON(raw, &out))
	assert.Equal(t, "uses } and { in a string", out.Text)
	assert.Equal(t, 2, out.N["x"])
}

func TestParseJSON_SkipsUnbalancedPrefix(t *testing.T) {
	var out map[string]any
	require.NoError(t, ParseJSON(`broken { "a": {"ok": 1}`, &out))
	assert.Equal(t, 1.0, out["ok"])
}

func TestParseJSON_Unrecoverable(t *testing.T) {
	var out map[string]any
	err := ParseJSON("I could not process this document.", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoJSON))
}
