package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// display variant: fit within a bounding box, never upscale
	DisplayMaxSize     = 1920
	DisplayJPEGQuality = 80

	// thumbnail variant: square cover crop for the gallery grid.
	// bulk regeneration uses the same rule so regenerated thumbnails
	// are indistinguishable from freshly ingested ones.
	ThumbSize        = 400
	ThumbJPEGQuality = 70
)

var supportedImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tif": true, ".tiff": true, ".heic": true, ".heif": true,
}

// IsSupportedImage checks if the filename has an accepted image extension
func IsSupportedImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return supportedImageExtensions[ext]
}

// DerivedVariants holds the two outputs of a transcode run
type DerivedVariants struct {
	Compressed []byte
	Thumbnail  []byte
}

// Transcode derives the compressed display variant and the square
// thumbnail from raw upload bytes. the source buffer is never mutated;
// failure of either derivation fails the whole call so ingestion can
// abort without a partial record.
func Transcode(buf []byte) (DerivedVariants, error) {
	img, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return DerivedVariants{}, fmt.Errorf("failed to decode image: %w", err)
	}
	_ = format

	display := imaging.Fit(img, DisplayMaxSize, DisplayMaxSize, imaging.Lanczos)
	compressed, err := encodeJPEG(display, DisplayJPEGQuality)
	if err != nil {
		return DerivedVariants{}, fmt.Errorf("failed to encode display variant: %w", err)
	}

	thumbnail, err := RenderThumbnail(img)
	if err != nil {
		return DerivedVariants{}, err
	}

	return DerivedVariants{Compressed: compressed, Thumbnail: thumbnail}, nil
}

// RenderThumbnail produces the square gallery thumbnail for an already
// decoded image. used by both ingestion and bulk regeneration.
func RenderThumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fill(img, ThumbSize, ThumbSize, imaging.Center, imaging.Lanczos)
	data, err := encodeJPEG(thumb, ThumbJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return data, nil
}

// RegenerateThumbnail re-derives the thumbnail from stored original bytes
func RegenerateThumbnail(buf []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode original: %w", err)
	}
	return RenderThumbnail(img)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
