package models

// Comment represents a comment on a photo. authenticated users are
// linked by UserID; guests identify themselves with a nickname and an
// optional email. one level of replies is supported through ParentID.
type Comment struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	PhotoID  uint    `json:"photo_id" gorm:"index;not null"`
	UserID   *uint   `json:"user_id,omitempty"`
	User     *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Nickname *string `json:"nickname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Content  string  `json:"content" gorm:"not null"`
	ParentID *uint   `json:"parent_id,omitempty" gorm:"index"`
	IP       string  `json:"-"`

	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`

	CreatedAt int64 `json:"created_at" gorm:"autoCreateTime"`
}

// TableName explicitly sets the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}
