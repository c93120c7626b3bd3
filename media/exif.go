package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExifData is the normalized attribute set for a photo. the well-known
// fields cover everything the gallery renders directly; every other tag
// found in the file is kept in Extra so nothing is lost on round-trip.
// a zero ExifData means no metadata could be recovered.
type ExifData struct {
	Make             *string
	Model            *string
	LensModel        *string
	DateTimeOriginal *time.Time
	ISO              *int
	FNumber          *float64
	ExposureTime     *float64
	FocalLength      *float64
	GPSLatitude      *float64
	GPSLongitude     *float64
	Extra            map[string]interface{}
}

// ExtractResult is what a single parse of an image buffer yields. the
// derived fields (Camera, Lens, TakenAt, Location) are display values
// computed from the attribute set; nil when not recoverable.
type ExtractResult struct {
	Exif     ExifData
	Camera   *string
	Lens     *string
	TakenAt  *time.Time
	Location *string
}

// IsEmpty reports whether nothing at all was recovered from the file
func (e ExifData) IsEmpty() bool {
	return e.Make == nil && e.Model == nil && e.LensModel == nil &&
		e.DateTimeOriginal == nil && e.ISO == nil && e.FNumber == nil &&
		e.ExposureTime == nil && e.FocalLength == nil &&
		e.GPSLatitude == nil && e.GPSLongitude == nil && len(e.Extra) == 0
}

// Clone returns a copy that shares no Extra map with the receiver
func (e ExifData) Clone() ExifData {
	out := e
	if e.Extra != nil {
		out.Extra = make(map[string]interface{}, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON flattens the well-known fields and the Extra bag into a
// single JSON object, the shape the frontend and the database expect.
func (e ExifData) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(e.Extra)+10)
	for k, v := range e.Extra {
		m[k] = v
	}
	if e.Make != nil {
		m["Make"] = *e.Make
	}
	if e.Model != nil {
		m["Model"] = *e.Model
	}
	if e.LensModel != nil {
		m["LensModel"] = *e.LensModel
	}
	if e.DateTimeOriginal != nil {
		m["DateTimeOriginal"] = e.DateTimeOriginal.UTC().Format(time.RFC3339)
	}
	if e.ISO != nil {
		m["ISO"] = *e.ISO
	}
	if e.FNumber != nil {
		m["FNumber"] = *e.FNumber
	}
	if e.ExposureTime != nil {
		m["ExposureTime"] = *e.ExposureTime
	}
	if e.FocalLength != nil {
		m["FocalLength"] = *e.FocalLength
	}
	if e.GPSLatitude != nil {
		m["GPSLatitude"] = *e.GPSLatitude
	}
	if e.GPSLongitude != nil {
		m["GPSLongitude"] = *e.GPSLongitude
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON: well-known keys are picked
// out of the flat object, everything else lands back in Extra.
func (e *ExifData) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*e = ExifData{}
	for k, v := range m {
		e.Assign(k, v)
	}
	return nil
}

// Assign sets a single attribute by tag name, coercing the value into the
// well-known field's type when the name matches one; anything that does
// not match (or does not coerce) goes into the Extra bag as-is.
func (e *ExifData) Assign(key string, value interface{}) {
	switch key {
	case "Make":
		if s, ok := toString(value); ok {
			e.Make = &s
			return
		}
	case "Model":
		if s, ok := toString(value); ok {
			e.Model = &s
			return
		}
	case "LensModel":
		if s, ok := toString(value); ok {
			e.LensModel = &s
			return
		}
	case "DateTimeOriginal":
		if t, ok := toTime(value); ok {
			e.DateTimeOriginal = &t
			return
		}
	case "ISO":
		if f, ok := toFloat(value); ok {
			i := int(f)
			e.ISO = &i
			return
		}
	case "FNumber":
		if f, ok := toFloat(value); ok {
			e.FNumber = &f
			return
		}
	case "ExposureTime":
		if f, ok := toFloat(value); ok {
			e.ExposureTime = &f
			return
		}
	case "FocalLength":
		if f, ok := toFloat(value); ok {
			e.FocalLength = &f
			return
		}
	case "GPSLatitude":
		if f, ok := toFloat(value); ok {
			e.GPSLatitude = &f
			return
		}
	case "GPSLongitude":
		if f, ok := toFloat(value); ok {
			e.GPSLongitude = &f
			return
		}
	}
	if e.Extra == nil {
		e.Extra = make(map[string]interface{})
	}
	e.Extra[key] = value
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscan(strings.TrimSpace(n), &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := ParseTakenAt(t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// tag names that map onto well-known ExifData fields and must not be
// duplicated into the Extra bag during a walk
var knownTagNames = map[string]bool{
	"Make": true, "Model": true, "LensModel": true,
	"DateTimeOriginal": true, "ISOSpeedRatings": true, "ISO": true,
	"FNumber": true, "ExposureTime": true, "FocalLength": true,
	"GPSLatitude": true, "GPSLongitude": true,
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}
	val = strings.TrimSpace(strings.ReplaceAll(val, "\x00", ""))
	if val == "" {
		return nil
	}
	return &val
}

// helper to safely get and convert an integer tag (like ISO)
func getInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// helper to safely get and convert a rational tag (like FNumber)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// DeriveCameraModel builds the display camera string from the Make and
// Model tags. Model wins outright unless Make adds information, i.e. Make
// is not already a case-insensitive substring of Model.
func DeriveCameraModel(cameraMake, model string) string {
	if model == "" {
		return ""
	}
	if cameraMake != "" && !strings.Contains(strings.ToLower(model), strings.ToLower(cameraMake)) {
		return cameraMake + " " + model
	}
	return model
}

// TakenAtFromUnixSeconds converts the codec's epoch-seconds timestamp to
// the stored instant. the value is carried as milliseconds since epoch,
// so the conversion is exactly seconds*1000.
func TakenAtFromUnixSeconds(sec int64) time.Time {
	return time.UnixMilli(sec * 1000)
}

// FormatLocation renders GPS coordinates as a display fallback string,
// always 4 decimal places, comma-space separated.
func FormatLocation(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}

type tagCollector struct {
	exif *ExifData
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if knownTagNames[key] {
		return nil
	}
	if c.exif.Extra == nil {
		c.exif.Extra = make(map[string]interface{})
	}
	c.exif.Extra[key] = tagValue(tag)
	return nil
}

// tagValue picks the friendliest representation a TIFF tag offers
func tagValue(tag *tiff.Tag) interface{} {
	if s, err := tag.StringVal(); err == nil {
		return s
	}
	if i, err := tag.Int(0); err == nil {
		return i
	}
	if num, den, err := tag.Rat2(0); err == nil && den != 0 {
		return float64(num) / float64(den)
	}
	return tag.String()
}

// ParseExif extracts the normalized attribute set from raw image bytes.
// it never fails past this boundary: a buffer with no readable EXIF block
// yields an empty result and a logged warning. the input is not mutated.
func ParseExif(buf []byte) ExtractResult {
	result := ExtractResult{}

	exifData, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		log.Printf("exif: no EXIF data found or error decoding: %v", err)
		return result
	}

	e := &result.Exif
	e.Make = getString(exifData, exif.Make)
	e.Model = getString(exifData, exif.Model)
	e.LensModel = getString(exifData, exif.LensModel)
	e.ISO = getInt(exifData, exif.ISOSpeedRatings)
	e.FNumber = getRational(exifData, exif.FNumber)
	e.ExposureTime = getRational(exifData, exif.ExposureTime)
	e.FocalLength = getRational(exifData, exif.FocalLength)

	if e.Model != nil {
		var cameraMake string
		if e.Make != nil {
			cameraMake = *e.Make
		}
		camera := DeriveCameraModel(cameraMake, *e.Model)
		result.Camera = &camera
	}
	result.Lens = e.LensModel

	if dt, err := exifData.DateTime(); err == nil {
		takenAt := TakenAtFromUnixSeconds(dt.Unix())
		e.DateTimeOriginal = &takenAt
		result.TakenAt = &takenAt
	}

	if lat, lng, err := exifData.LatLong(); err == nil {
		e.GPSLatitude = &lat
		e.GPSLongitude = &lng
		location := FormatLocation(lat, lng)
		result.Location = &location
	}

	collector := &tagCollector{exif: e}
	if err := exifData.Walk(collector); err != nil {
		log.Printf("exif: error walking tags: %v", err)
	}

	return result
}
