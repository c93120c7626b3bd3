package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHeifLike(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		filename string
		want     bool
	}{
		{"heic mime", "image/heic", "photo.bin", true},
		{"heif mime", "image/heif", "photo.bin", true},
		{"heic extension", "application/octet-stream", "IMG_0001.HEIC", true},
		{"heif extension", "", "photo.heif", true},
		{"plain jpeg", "image/jpeg", "photo.jpg", false},
		{"png", "image/png", "photo.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeifLike(tt.mimeType, tt.filename))
		})
	}
}

func TestNormalizeUploadPassthrough(t *testing.T) {
	input := []byte("jpeg bytes")
	out, err := NormalizeUpload(input, "image/jpeg", "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestConvertHeicToJpegRejectsGarbage(t *testing.T) {
	_, err := ConvertHeicToJpeg([]byte("not a heic container"))
	assert.Error(t, err)
}
