package services

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"github.com/pixelfall/gallerybackend/repository"
	"gorm.io/gorm"
)

// batch outcome statuses
const (
	BatchStatusRegenerated = "regenerated"
	BatchStatusUpdated     = "updated"
	BatchStatusSkipped     = "skipped"
	BatchStatusFailed      = "failed"
)

// BatchOutcome records what happened to one photo during a maintenance
// batch. batches never abort on a per-photo failure; the outcome list is
// the caller's report.
type BatchOutcome struct {
	PhotoID uint   `json:"photo_id"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// BatchSummary is the result of a maintenance batch
type BatchSummary struct {
	Count   int            `json:"count"`
	Results []BatchOutcome `json:"results"`
	Message string         `json:"message"`
}

// PhotoUpdate carries the editable fields of a PATCH request. nil means
// "not supplied"; the exposure fields additionally treat an empty string
// as not supplied, matching the upload form's behaviour.
type PhotoUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Story       *string `json:"story"`
	Visibility  *string `json:"visibility"`
	Camera      *string `json:"camera"`
	Lens        *string `json:"lens"`
	Location    *string `json:"location"`
	TakenAt     *string `json:"takenAt"`
	ISO         *string `json:"iso"`
	Aperture    *string `json:"aperture"`
	Shutter     *string `json:"shutter"`
	FocalLength *string `json:"focalLength"`
}

// PhotoService owns the photo ingestion pipeline: upload, metadata
// normalization, derived-variant generation, persistence, and the bulk
// maintenance operations.
type PhotoService struct {
	Photos repository.PhotoRepositoryInterface
	Store  media.Store
}

func NewPhotoService(photos repository.PhotoRepositoryInterface, store media.Store) *PhotoService {
	return &PhotoService{Photos: photos, Store: store}
}

// uniqueFilename derives the shared basename for a new upload's stored
// variants: current-time prefix plus the original basename. collisions
// are accepted as negligible.
func uniqueFilename(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), base)
}

func optStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// pick returns the override value if supplied, else the extracted one
func pick(override string, extracted *string) *string {
	if v := optStr(override); v != nil {
		return v
	}
	return extracted
}

// CreatePhoto runs the full ingestion pipeline for an upload: persist
// the original, extract and merge metadata, derive the display and
// thumbnail variants, and create the photo record. any failing step
// aborts the whole operation with no record created; an original already
// written to disk is left for the orphan sweeper to reclaim.
func (s *PhotoService) CreatePhoto(data []byte, originalName, mimeType string, o media.Overrides, userID uint) (*models.Photo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %w", ErrValidation)
	}
	if !media.IsSupportedImage(originalName) {
		return nil, fmt.Errorf("unsupported image type %q: %w", originalName, ErrValidation)
	}

	visibility := models.VisibilityPublic
	if o.Visibility != "" {
		visibility = models.Visibility(strings.ToUpper(strings.TrimSpace(o.Visibility)))
		if !visibility.Valid() {
			return nil, fmt.Errorf("invalid visibility %q: %w", o.Visibility, ErrValidation)
		}
	}

	filename := uniqueFilename(originalName)

	if _, err := s.Store.Save(media.AssetTypeOriginal, filename, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store original upload: %w", err)
	}

	extract := media.ParseExif(data)
	merged := media.ApplyOverrides(extract.Exif, o).Sanitized()

	normalized, err := media.NormalizeUpload(data, mimeType, originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to convert upload for transcoding: %w", err)
	}

	variants, err := media.Transcode(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to transcode upload: %w", err)
	}

	if _, err := s.Store.Save(media.AssetTypeCompressed, filename, bytes.NewReader(variants.Compressed)); err != nil {
		return nil, fmt.Errorf("failed to store display variant: %w", err)
	}
	if _, err := s.Store.Save(media.AssetTypeThumbnail, filename, bytes.NewReader(variants.Thumbnail)); err != nil {
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	photo := &models.Photo{
		URL:         s.Store.PublicURL(media.AssetTypeCompressed, filename),
		ThumbURL:    s.Store.PublicURL(media.AssetTypeThumbnail, filename),
		Title:       optStr(o.Title),
		Description: optStr(o.Description),
		Story:       optStr(o.Story),
		Visibility:  visibility,
		UserID:      userID,
		Camera:      pick(o.Camera, extract.Camera),
		Lens:        pick(o.Lens, extract.Lens),
		Location:    pick(o.Location, extract.Location),
		Exif:        merged,
	}

	if err := s.Photos.Create(photo); err != nil {
		return nil, err
	}

	log.Printf("photos: ingested %s as photo %d for user %d", filename, photo.ID, userID)
	return photo, nil
}

// ExtractMetadata parses an uploaded buffer without persisting anything
func (s *PhotoService) ExtractMetadata(data []byte) media.ExtractResult {
	return media.ParseExif(data)
}

// GetPhoto retrieves a photo with its comment tree
func (s *PhotoService) GetPhoto(id uint) (*models.Photo, error) {
	photo, err := s.Photos.GetByIDWithComments(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return photo, nil
}

// ListPhotos lists photos newest-first, optionally filtered by visibility
func (s *PhotoService) ListPhotos(visibility *models.Visibility) ([]models.Photo, error) {
	return s.Photos.ListAll(visibility)
}

// UpdatePhoto re-applies the override-field mapping against the stored
// attribute tree, then persists the supplied owner fields. fails with
// ErrNotFound when the id does not exist.
func (s *PhotoService) UpdatePhoto(id uint, upd PhotoUpdate) (*models.Photo, error) {
	photo, err := s.Photos.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	o := media.Overrides{}
	if upd.TakenAt != nil {
		o.TakenAt = *upd.TakenAt
	}
	if upd.ISO != nil {
		o.ISO = *upd.ISO
	}
	if upd.Aperture != nil {
		o.Aperture = *upd.Aperture
	}
	if upd.Shutter != nil {
		o.Shutter = *upd.Shutter
	}
	if upd.FocalLength != nil {
		o.FocalLength = *upd.FocalLength
	}
	photo.Exif = media.ApplyOverrides(photo.Exif, o).Sanitized()

	columns := []string{"exif"}
	if upd.Title != nil {
		photo.Title = optStr(*upd.Title)
		columns = append(columns, "title")
	}
	if upd.Description != nil {
		photo.Description = optStr(*upd.Description)
		columns = append(columns, "description")
	}
	if upd.Story != nil {
		photo.Story = optStr(*upd.Story)
		columns = append(columns, "story")
	}
	if upd.Visibility != nil {
		visibility := models.Visibility(strings.ToUpper(strings.TrimSpace(*upd.Visibility)))
		if !visibility.Valid() {
			return nil, fmt.Errorf("invalid visibility %q: %w", *upd.Visibility, ErrValidation)
		}
		photo.Visibility = visibility
		columns = append(columns, "visibility")
	}
	if upd.Camera != nil {
		photo.Camera = optStr(*upd.Camera)
		columns = append(columns, "camera")
	}
	if upd.Lens != nil {
		photo.Lens = optStr(*upd.Lens)
		columns = append(columns, "lens")
	}
	if upd.Location != nil {
		photo.Location = optStr(*upd.Location)
		columns = append(columns, "location")
	}

	if err := s.Photos.Update(id, photo, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return photo, nil
}

// DeletePhoto removes the record and makes a best-effort attempt to
// remove the stored variants. file cleanup failures are logged, never
// surfaced; the sweeper picks up anything left behind.
func (s *PhotoService) DeletePhoto(id uint) error {
	photo, err := s.Photos.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return err
	}

	if err := s.Photos.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return err
	}

	filename := photo.Filename()
	for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypeCompressed, media.AssetTypeThumbnail} {
		if err := s.Store.Delete(assetType, filename); err != nil {
			log.Printf("photos: failed to remove %s variant of deleted photo %d: %v", assetType, id, err)
		}
	}
	return nil
}

// RegenerateAllThumbnails re-derives the thumbnail of every stored photo
// from its original file. originals are normalized the same way
// ingestion normalizes them, so a stored HEIC original converts before
// decoding. photos whose original is missing are skipped; per-photo
// failures never abort the batch.
func (s *PhotoService) RegenerateAllThumbnails() (BatchSummary, error) {
	photos, err := s.Photos.ListAll(nil)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{Results: make([]BatchOutcome, 0, len(photos))}
	for i := range photos {
		photo := &photos[i]
		filename := photo.Filename()

		data, err := s.Store.Read(media.AssetTypeOriginal, filename)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("photos: original file not found for photo %d: %s", photo.ID, filename)
				summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusSkipped, Detail: "original file missing"})
			} else {
				log.Printf("photos: failed to read original for photo %d: %v", photo.ID, err)
				summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			}
			continue
		}

		normalized, err := media.NormalizeUpload(data, "", filename)
		if err != nil {
			log.Printf("photos: failed to convert original for photo %d: %v", photo.ID, err)
			summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			continue
		}

		thumb, err := media.RegenerateThumbnail(normalized)
		if err != nil {
			log.Printf("photos: failed to regenerate thumbnail for photo %d: %v", photo.ID, err)
			summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			continue
		}
		if _, err := s.Store.Save(media.AssetTypeThumbnail, filename, bytes.NewReader(thumb)); err != nil {
			log.Printf("photos: failed to save regenerated thumbnail for photo %d: %v", photo.ID, err)
			summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			continue
		}

		summary.Count++
		summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusRegenerated})
	}

	summary.Message = fmt.Sprintf("Successfully regenerated %d thumbnails", summary.Count)
	return summary, nil
}

// FixMetadata re-parses the EXIF of every stored photo's original file
// and overwrites the metadata columns when anything was recovered,
// keeping the prior stored value for any field extraction yields nothing
// for. per-photo failures never abort the batch.
func (s *PhotoService) FixMetadata() (BatchSummary, error) {
	photos, err := s.Photos.ListAll(nil)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{Results: make([]BatchOutcome, 0, len(photos))}
	for i := range photos {
		photo := &photos[i]
		filename := photo.Filename()

		data, err := s.Store.Read(media.AssetTypeOriginal, filename)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusSkipped, Detail: "original file missing"})
			} else {
				log.Printf("photos: failed to read original for photo %d: %v", photo.ID, err)
				summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			}
			continue
		}

		extract := media.ParseExif(data)
		if extract.Exif.IsEmpty() {
			summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusSkipped, Detail: "no metadata recovered"})
			continue
		}

		camera := extract.Camera
		if camera == nil {
			camera = photo.Camera
		}
		lens := extract.Lens
		if lens == nil {
			lens = photo.Lens
		}
		location := extract.Location
		if location == nil {
			location = photo.Location
		}

		if err := s.Photos.UpdateMetadata(photo.ID, extract.Exif.Sanitized(), camera, lens, location); err != nil {
			log.Printf("photos: failed to update metadata for photo %d: %v", photo.ID, err)
			summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusFailed, Detail: err.Error()})
			continue
		}

		summary.Count++
		summary.Results = append(summary.Results, BatchOutcome{PhotoID: photo.ID, Status: BatchStatusUpdated})
	}

	summary.Message = fmt.Sprintf("Successfully updated metadata for %d photos", summary.Count)
	return summary, nil
}
