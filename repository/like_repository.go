package repository

import (
	"fmt"
	"time"

	"github.com/pixelfall/gallerybackend/models"
	"gorm.io/gorm"
)

// LikeRepository handles database operations for Like entities
type LikeRepository struct {
	DB *gorm.DB
}

// NewLikeRepository creates a new instance of LikeRepository
func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{DB: db}
}

// Create persists a new like
func (r *LikeRepository) Create(like *models.Like) error {
	if err := r.DB.Create(like).Error; err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// CountByPhoto returns the number of likes a photo has received
func (r *LikeRepository) CountByPhoto(photoID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Like{}).Where("photo_id = ?", photoID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count likes for photo %d: %w", photoID, err)
	}
	return count, nil
}

// ExistsForIPSince reports whether the given IP already liked the photo
// at or after the given instant
func (r *LikeRepository) ExistsForIPSince(photoID uint, ip string, since time.Time) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Like{}).
		Where("photo_id = ? AND ip = ? AND created_at >= ?", photoID, ip, since.Unix()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing like for photo %d: %w", photoID, err)
	}
	return count > 0, nil
}
