package models

// Like records one anonymous like on a photo. deduplication (one like
// per IP per photo per day) is enforced by query at creation time, not
// by a constraint.
type Like struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PhotoID   uint   `json:"photo_id" gorm:"index;not null"`
	IP        string `json:"-" gorm:"index"`
	CreatedAt int64  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName explicitly sets the table name for GORM.
func (Like) TableName() string {
	return "likes"
}
