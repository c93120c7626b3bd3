package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"path/filepath"
	"strings"

	"github.com/adrium/goheif"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

const heicConvertQuality = 90

// IsHeifLike reports whether the mime type or filename indicates a
// HEIC/HEIF container, which the standard image decoders cannot read.
func IsHeifLike(mimeType, filename string) bool {
	t := strings.ToLower(mimeType)
	if strings.Contains(t, "heic") || strings.Contains(t, "heif") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}

// NormalizeUpload returns bytes the transcoder can decode. HEIC/HEIF
// input is converted to an orientation-corrected JPEG; anything else is
// passed through untouched.
func NormalizeUpload(input []byte, mimeType, filename string) ([]byte, error) {
	if !IsHeifLike(mimeType, filename) {
		return input, nil
	}
	return ConvertHeicToJpeg(input)
}

// ConvertHeicToJpeg decodes HEIC/HEIF image data and re-encodes it as
// JPEG, applying the EXIF orientation so derived variants come out
// upright.
func ConvertHeicToJpeg(input []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to decode HEIC: %w", err)
	}

	oriented := applyOrientation(img, input)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, oriented, &jpeg.Options{Quality: heicConvertQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// applyOrientation reads the EXIF orientation tag and applies the
// corresponding transform to the decoded image
func applyOrientation(img image.Image, input []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(input))
	if err != nil {
		return img
	}

	orientTag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}

	orient, err := orientTag.Int(0)
	if err != nil {
		log.Printf("heic: failed to read orientation value: %v", err)
		return img
	}

	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
