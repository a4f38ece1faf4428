package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is a post's publication state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
)

// Toggled returns the opposite publication state.
func (s Status) Toggled() Status {
	if s == StatusPublished {
		return StatusDraft
	}
	return StatusPublished
}

// Location is a post's best-effort place. Coordinates are either both set or both nil;
// City and Country are free-text labels and may be present without coordinates.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      string   `gorm:"size:128;index" json:"city,omitempty"`
	Country   string   `gorm:"size:128" json:"country,omitempty"`
}

// HasCoordinates reports whether the location can be placed on a map.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Post is a journal entry with its ordered media.
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Slug      string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"size:255" json:"title,omitempty"`
	Caption   string    `gorm:"type:text" json:"caption,omitempty"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	TakenAt   time.Time `gorm:"index;not null" json:"takenAt"`
	Location  `gorm:"embedded"`
	Status    Status    `gorm:"size:16;not null;index:idx_posts_status_created,priority:1" json:"status"`
	CreatedAt time.Time `gorm:"index:idx_posts_status_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Media     []Media   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"media"`
}

// BeforeCreate assigns an opaque id and fills timestamps when not provided.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.TakenAt.IsZero() {
		p.TakenAt = p.CreatedAt
	}
	p.UpdatedAt = now
	return nil
}

// IsPublished reports whether public readers may see the post.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// DisplayTitle falls back to a placeholder for untitled posts.
func (p *Post) DisplayTitle() string {
	if p.Title == "" {
		return "Untitled Post"
	}
	return p.Title
}

// All lists every model that the schema migration manages.
func All() []any {
	return []any{&Post{}, &Media{}, &PageView{}}
}
