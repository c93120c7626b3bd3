package repository

import (
	"fmt"

	"github.com/pixelfall/gallerybackend/models"
	"gorm.io/gorm"
)

// CommentRepository handles database operations for Comment entities
type CommentRepository struct {
	DB *gorm.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

// Create persists a new comment
func (r *CommentRepository) Create(comment *models.Comment) error {
	if err := r.DB.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by id
func (r *CommentRepository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.DB.First(&comment, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}
	return &comment, nil
}

// ListByPhoto retrieves the top-level comments of a photo newest-first,
// with replies and usernames preloaded
func (r *CommentRepository) ListByPhoto(photoID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.DB.
		Where("photo_id = ? AND parent_id IS NULL", photoID).
		Preload("User").
		Preload("Replies").
		Preload("Replies.User").
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for photo %d: %w", photoID, err)
	}
	return comments, nil
}

// Delete removes a comment and its direct replies
func (r *CommentRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete replies of comment %d: %w", id, err)
		}
		result := tx.Delete(&models.Comment{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete comment %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
