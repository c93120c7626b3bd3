package repository

import (
	"fmt"

	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
	"gorm.io/gorm"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// Create persists a new photo record
func (r *PhotoRepository) Create(photo *models.Photo) error {
	if err := r.DB.Create(photo).Error; err != nil {
		return fmt.Errorf("failed to create photo record: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by its identifier
func (r *PhotoRepository) GetByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.Preload("User").First(&photo, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo %d: %w", id, err)
	}
	return &photo, nil
}

// GetByIDWithComments retrieves a photo with its top-level comments,
// their replies and the commenting users preloaded
func (r *PhotoRepository) GetByIDWithComments(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.
		Preload("User").
		Preload("Comments", "parent_id IS NULL").
		Preload("Comments.User").
		Preload("Comments.Replies").
		Preload("Comments.Replies.User").
		First(&photo, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo %d with comments: %w", id, err)
	}
	return &photo, nil
}

// ListAll retrieves photos newest-first, optionally filtered by visibility
func (r *PhotoRepository) ListAll(visibility *models.Visibility) ([]models.Photo, error) {
	var photos []models.Photo
	query := r.DB.Preload("User").Order("created_at DESC")
	if visibility != nil {
		query = query.Where("visibility = ?", *visibility)
	}
	if err := query.Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// Update persists the named columns from the given photo value. columns
// are forced with Select so nil pointer fields clear their columns and
// the Exif serializer is applied.
func (r *PhotoRepository) Update(id uint, photo *models.Photo, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	result := r.DB.Model(&models.Photo{}).Where("id = ?", id).Select(columns).Updates(photo)
	if result.Error != nil {
		return fmt.Errorf("failed to update photo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateMetadata overwrites the metadata columns filled by a re-scan
func (r *PhotoRepository) UpdateMetadata(id uint, exifData media.ExifData, camera, lens, location *string) error {
	photo := models.Photo{
		Exif:     exifData,
		Camera:   camera,
		Lens:     lens,
		Location: location,
	}
	result := r.DB.Model(&models.Photo{}).Where("id = ?", id).
		Select("exif", "camera", "lens", "location").
		Updates(&photo)
	if result.Error != nil {
		return fmt.Errorf("failed to update metadata for photo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a photo record by id
func (r *PhotoRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Photo{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
