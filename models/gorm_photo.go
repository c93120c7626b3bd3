package models

import (
	"path"

	"github.com/pixelfall/gallerybackend/media"
)

// Visibility controls whether a photo appears in public listings
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Valid reports whether v is one of the two accepted values
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Photo represents one uploaded image. URL and ThumbURL point at the
// derived variants under the uploads tree; once set they must refer to
// files that exist on disk. the Exif column holds the sanitized merged
// attribute set as a flat JSON object.
type Photo struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	URL         string         `json:"url" gorm:"not null"`
	ThumbURL    string         `json:"thumbUrl" gorm:"not null"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Story       *string        `json:"story,omitempty"`
	Visibility  Visibility     `json:"visibility" gorm:"not null;default:PUBLIC"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	User        *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Camera      *string        `json:"camera,omitempty"`
	Lens        *string        `json:"lens,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Exif        media.ExifData `json:"exif" gorm:"serializer:json"`
	CreatedAt   int64          `json:"created_at" gorm:"autoCreateTime;index"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PhotoID"`
	Likes    []Like    `json:"-" gorm:"foreignKey:PhotoID"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

// Filename returns the shared basename of the photo's stored variants
func (p *Photo) Filename() string {
	return path.Base(p.URL)
}
