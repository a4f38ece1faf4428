package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaType distinguishes photos from videos.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// Media is one photo or video attached to a post. The bytes live with the media
// provider; CldID is the provider's public id.
type Media struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;uniqueIndex:idx_media_post_order,priority:1" json:"postId"`
	Type      MediaType `gorm:"size:8;not null" json:"type"`
	CldID     string    `gorm:"column:cld_id;size:255;not null" json:"cldId"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Duration  *float64  `json:"duration,omitempty"`
	Order     int       `gorm:"column:sort_order;not null;uniqueIndex:idx_media_post_order,priority:2" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the table name singular-looking, matching the historical schema.
func (Media) TableName() string {
	return "media"
}

// BeforeCreate assigns an opaque id.
func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
