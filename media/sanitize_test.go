package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTreeStrings(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"null bytes stripped", "Canon\x00\x00", "Canon"},
		{"whitespace trimmed", "  EOS R5  ", "EOS R5"},
		{"null bytes then trim", "\x00 hello \x00", "hello"},
		{"bytes become text", []byte("FUJI\x00"), "FUJI"},
		{"numbers pass through", 42, 42},
		{"floats pass through", 1.8, 1.8},
		{"nil passes through", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTree(tt.in))
		})
	}
}

func TestSanitizeTreeNested(t *testing.T) {
	in := map[string]interface{}{
		"Make": "Canon\x00",
		"Tags": []interface{}{" a ", "b\x00"},
		"Nested": map[string]interface{}{
			"Model": " EOS R5 ",
		},
	}
	got := SanitizeTree(in).(map[string]interface{})
	assert.Equal(t, "Canon", got["Make"])
	assert.Equal(t, []interface{}{"a", "b"}, got["Tags"])
	assert.Equal(t, "EOS R5", got["Nested"].(map[string]interface{})["Model"])
}

func TestSanitizeTreeTimePassesThrough(t *testing.T) {
	now := time.Now()
	assert.Equal(t, now, SanitizeTree(now))
}

func TestSanitizeTreeIdempotent(t *testing.T) {
	in := map[string]interface{}{
		"Make": "Canon\x00",
		"Tags": []interface{}{" a "},
	}
	once := SanitizeTree(in)
	twice := SanitizeTree(once)
	assert.Equal(t, once, twice)
}

func TestExifDataSanitized(t *testing.T) {
	dirtyMake := "Canon\x00"
	dirtyModel := "  EOS R5\x00 "
	e := ExifData{
		Make:  &dirtyMake,
		Model: &dirtyModel,
		Extra: map[string]interface{}{"Software": "darktable\x00"},
	}

	clean := e.Sanitized()
	require.NotNil(t, clean.Make)
	assert.Equal(t, "Canon", *clean.Make)
	require.NotNil(t, clean.Model)
	assert.Equal(t, "EOS R5", *clean.Model)
	assert.Equal(t, "darktable", clean.Extra["Software"])

	// the receiver is untouched
	assert.Equal(t, "Canon\x00", *e.Make)
}
