package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShutter(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1/100", 0.01, false},
		{"1/250", 0.004, false},
		{"2s", 2.0, false},
		{"0.5", 0.5, false},
		{" 1 / 100 ", 0.01, false},
		{"1/0", 0, true},
		{"fast", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseShutter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseAperture(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"f/1.8", 1.8, false},
		{"F/2.8", 2.8, false},
		{"4", 4.0, false},
		{" f/1.4 ", 1.4, false},
		{"wide", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAperture(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseTakenAt(t *testing.T) {
	got, err := ParseTakenAt("2023:11:14 22:13:20")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got)

	got, err = ParseTakenAt("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got)

	_, err = ParseTakenAt("next tuesday")
	assert.Error(t, err)
}

func TestApplyOverridesPrecedence(t *testing.T) {
	extractedISO := 100
	extracted := ExifData{ISO: &extractedISO}

	// manual payload beats extracted, individual field beats manual
	merged := ApplyOverrides(extracted, Overrides{
		ManualExif: `{"ISO": 200, "FNumber": 2.8}`,
		ISO:        "400",
	})

	require.NotNil(t, merged.ISO)
	assert.Equal(t, 400, *merged.ISO)
	require.NotNil(t, merged.FNumber)
	assert.Equal(t, 2.8, *merged.FNumber)

	// the extracted set is never modified
	assert.Equal(t, 100, *extracted.ISO)
}

func TestApplyOverridesIndividualFields(t *testing.T) {
	merged := ApplyOverrides(ExifData{}, Overrides{
		Aperture:    "f/1.8",
		Shutter:     "1/100",
		FocalLength: "35",
		TakenAt:     "2023-11-14",
	})

	require.NotNil(t, merged.FNumber)
	assert.InDelta(t, 1.8, *merged.FNumber, 1e-9)
	require.NotNil(t, merged.ExposureTime)
	assert.InDelta(t, 0.01, *merged.ExposureTime, 1e-9)
	require.NotNil(t, merged.FocalLength)
	assert.InDelta(t, 35.0, *merged.FocalLength, 1e-9)
	require.NotNil(t, merged.DateTimeOriginal)
	assert.Equal(t, 2023, merged.DateTimeOriginal.Year())
}

func TestApplyOverridesMalformedInputsSwallowed(t *testing.T) {
	extractedISO := 100
	merged := ApplyOverrides(ExifData{ISO: &extractedISO}, Overrides{
		ManualExif: "{not json",
		ISO:        "many",
		Aperture:   "wide open",
		Shutter:    "fast",
	})

	// bad values leave the extracted attributes in place
	require.NotNil(t, merged.ISO)
	assert.Equal(t, 100, *merged.ISO)
	assert.Nil(t, merged.FNumber)
	assert.Nil(t, merged.ExposureTime)
}
