package repository

import (
	"time"

	"github.com/pixelfall/gallerybackend/media"
	"github.com/pixelfall/gallerybackend/models"
)

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	Create(photo *models.Photo) error
	GetByID(id uint) (*models.Photo, error)
	GetByIDWithComments(id uint) (*models.Photo, error)
	ListAll(visibility *models.Visibility) ([]models.Photo, error)
	Update(id uint, photo *models.Photo, columns []string) error
	UpdateMetadata(id uint, exifData media.ExifData, camera, lens, location *string) error
	Delete(id uint) error
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	UpdatePassword(id uint, passwordHash string) error
	UpdateRole(id uint, role models.Role) error
}

// CommentRepositoryInterface defines the methods for comment data operations
type CommentRepositoryInterface interface {
	Create(comment *models.Comment) error
	GetByID(id uint) (*models.Comment, error)
	ListByPhoto(photoID uint) ([]models.Comment, error)
	Delete(id uint) error
}

// LikeRepositoryInterface defines the methods for like data operations
type LikeRepositoryInterface interface {
	Create(like *models.Like) error
	CountByPhoto(photoID uint) (int64, error)
	ExistsForIPSince(photoID uint, ip string, since time.Time) (bool, error)
}
