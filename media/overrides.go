package media

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Overrides carries the caller-supplied fields accompanying an upload.
// every field is optional; an empty string means "not supplied". the
// exposure fields accept the human-friendly forms a photographer types
// ("f/1.8", "1/100", "2s") rather than raw numbers.
type Overrides struct {
	Title       string
	Description string
	Story       string
	Visibility  string
	Camera      string
	Lens        string
	Location    string
	TakenAt     string
	ISO         string
	Aperture    string
	Shutter     string
	FocalLength string
	ManualExif  string // freeform JSON payload, shallow-merged before the fields above
}

// takenAtLayouts are tried in order when parsing a caller-supplied date
var takenAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05", // EXIF format
	"2006-01-02",
}

// ParseTakenAt parses a caller-supplied date string
func ParseTakenAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range takenAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// ParseAperture parses an aperture override, stripping a leading "f/"
// (case-insensitive): "f/1.8" and "1.8" both yield 1.8.
func ParseAperture(s string) (float64, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "f/") {
		s = s[2:]
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid aperture %q: %w", s, err)
	}
	return val, nil
}

// ParseShutter parses a shutter-speed override. fractional forms divide
// ("1/100" -> 0.01); otherwise a trailing "s" is stripped and the rest is
// parsed as seconds ("2s" -> 2.0).
func ParseShutter(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		parts := strings.SplitN(s, "/", 2)
		num, errN := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		den, errD := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errN != nil || errD != nil || den == 0 {
			return 0, fmt.Errorf("invalid shutter fraction %q", s)
		}
		return num / den, nil
	}
	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "s") {
		s = s[:len(s)-1]
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid shutter %q: %w", s, err)
	}
	return val, nil
}

// mergeManualExif shallow-merges a freeform JSON payload into the
// attribute set. a payload that does not parse is swallowed with a
// warning so the rest of the pipeline can proceed.
func mergeManualExif(e *ExifData, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	var manual map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &manual); err != nil {
		log.Printf("overrides: failed to parse manual EXIF payload: %v", err)
		return
	}
	for k, v := range manual {
		e.Assign(k, v)
	}
}

// ApplyOverrides merges caller-supplied fields into an extracted
// attribute set and returns the merged copy. precedence, highest first:
// individual override fields, the freeform ManualExif payload, then the
// extracted attributes. the input set is never modified.
func ApplyOverrides(exifData ExifData, o Overrides) ExifData {
	merged := exifData.Clone()

	mergeManualExif(&merged, o.ManualExif)

	if o.TakenAt != "" {
		if t, err := ParseTakenAt(o.TakenAt); err == nil {
			merged.DateTimeOriginal = &t
		} else {
			log.Printf("overrides: %v", err)
		}
	}
	if o.ISO != "" {
		if iso, err := strconv.Atoi(strings.TrimSpace(o.ISO)); err == nil {
			merged.ISO = &iso
		} else if f, errF := strconv.ParseFloat(strings.TrimSpace(o.ISO), 64); errF == nil {
			iso := int(f)
			merged.ISO = &iso
		} else {
			log.Printf("overrides: invalid ISO %q: %v", o.ISO, err)
		}
	}
	if o.Aperture != "" {
		if f, err := ParseAperture(o.Aperture); err == nil {
			merged.FNumber = &f
		} else {
			log.Printf("overrides: %v", err)
		}
	}
	if o.Shutter != "" {
		if f, err := ParseShutter(o.Shutter); err == nil {
			merged.ExposureTime = &f
		} else {
			log.Printf("overrides: %v", err)
		}
	}
	if o.FocalLength != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(o.FocalLength), 64); err == nil {
			merged.FocalLength = &f
		} else {
			log.Printf("overrides: invalid focal length %q: %v", o.FocalLength, err)
		}
	}

	return merged
}
