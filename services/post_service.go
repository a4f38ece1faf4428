// Package services holds the business rules over posts: validation, slugs,
// media ordering, visibility and the read projections built on top of them.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/store"
	"github.com/cppla/tripjournal/utils"
	"github.com/cppla/tripjournal/validation"
)

const (
	// maxSlugProbes bounds the slug search: the base, then -2, -3, ... up to -maxSlugProbes.
	maxSlugProbes = 1000
	// maxCreateAttempts bounds retries when a concurrent writer claims the same slug.
	maxCreateAttempts = 5
)

// ContentStore is the persistence the post service needs.
type ContentStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindPublishedByID(ctx context.Context, id string) (*models.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ReplaceAggregate(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	ToggleStatus(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status models.Status, order store.Order, limit int) ([]models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	PublishedCounts(ctx context.Context) (store.Counts, error)
	StatusCounts(ctx context.Context) (store.StatusCounts, error)
}

// PostService is the only writer of posts.
type PostService struct {
	store ContentStore
	now   func() time.Time
}

// NewPostService creates a PostService over s.
func NewPostService(s ContentStore) *PostService {
	return &PostService{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListPublished returns published posts newest first. limit <= 0 returns all of them.
func (s *PostService) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	return s.store.ListByStatus(ctx, models.StatusPublished, store.ByCreatedDesc, limit)
}

// ListPublishedByTakenAt returns published posts by capture time, latest first.
func (s *PostService) ListPublishedByTakenAt(ctx context.Context) ([]models.Post, error) {
	return s.store.ListByStatus(ctx, models.StatusPublished, store.ByTakenDesc, 0)
}

// ListPublishedByUpdatedAt returns published posts most recently edited first.
func (s *PostService) ListPublishedByUpdatedAt(ctx context.Context) ([]models.Post, error) {
	return s.store.ListByStatus(ctx, models.StatusPublished, store.ByUpdatedDesc, 0)
}

// GetByID returns a post in any state, for the editor.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.store.FindByID(ctx, id)
}

// GetPublishedByID returns a post only when public readers may see it.
func (s *PostService) GetPublishedByID(ctx context.Context, id string) (*models.Post, error) {
	return s.store.FindPublishedByID(ctx, id)
}

// GetPublishedBySlug resolves a public post URL.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.store.FindPublishedBySlug(ctx, slug)
}

// Counts summarises published content.
func (s *PostService) Counts(ctx context.Context) (store.Counts, error) {
	return s.store.PublishedCounts(ctx)
}

// Create validates in, derives a unique slug and stores the post with media numbered 0..n-1.
func (s *PostService) Create(ctx context.Context, in *validation.PostInput) (*models.Post, error) {
	validation.Normalize(in)
	if err := validation.ValidatePost(in); err != nil {
		return nil, err
	}

	now := s.now()
	post := s.build(in)
	post.CreatedAt = now
	if in.TakenAt == nil {
		post.TakenAt = now
	}

	base := Slugify(post.Title)
	if base == "" {
		base = fallbackSlug(now)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		slug, err := s.uniqueSlug(ctx, base)
		if err != nil {
			return nil, err
		}
		post.Slug = slug
		err = s.store.Create(ctx, post)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, store.ErrSlugTaken) {
			return nil, err
		}
		resetIDs(post)
	}
	return nil, fmt.Errorf("create post: %w", store.ErrSlugTaken)
}

// Update validates in and then replaces the post's content and its whole media set.
// The slug and creation time never change; takenAt is kept when in omits it.
func (s *PostService) Update(ctx context.Context, id string, in *validation.PostInput) (*models.Post, error) {
	validation.Normalize(in)
	if err := validation.ValidatePost(in); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post := s.build(in)
	post.ID = existing.ID
	if in.TakenAt == nil {
		post.TakenAt = existing.TakenAt
	}
	if err := s.store.ReplaceAggregate(ctx, post); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Delete removes a post and its media. A missing id yields store.ErrNotFound.
func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ToggleStatus flips a post between draft and published.
func (s *PostService) ToggleStatus(ctx context.Context, id string) (*models.Post, error) {
	if err := s.store.ToggleStatus(ctx, id); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// SetStatus moves a post to status.
func (s *PostService) SetStatus(ctx context.Context, id string, status models.Status) (*models.Post, error) {
	if status != models.StatusDraft && status != models.StatusPublished {
		return nil, &validation.Error{Fields: []validation.FieldError{{
			Field: "status", Tag: "oneof", Message: "status must be one of: DRAFT PUBLISHED",
		}}}
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Dashboard is the admin overview.
type Dashboard struct {
	Posts []models.Post      `json:"posts"`
	Stats store.StatusCounts `json:"stats"`
}

// Dashboard lists every post, drafts included, with per-status counts.
func (s *PostService) Dashboard(ctx context.Context) (*Dashboard, error) {
	posts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Posts: posts, Stats: stats}, nil
}

func (s *PostService) uniqueSlug(ctx context.Context, base string) (string, error) {
	for n := 1; n <= maxSlugProbes; n++ {
		candidate := base
		if n > 1 {
			candidate = suffixed(base, n)
		}
		taken, err := s.store.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q: %w", base, store.ErrSlugTaken)
}

// build maps a validated payload onto a post. Media order is the submission order.
func (s *PostService) build(in *validation.PostInput) *models.Post {
	post := &models.Post{
		Title:   in.Title,
		Caption: in.Caption,
		Body:    utils.SanitizeBody(in.Body),
		Status:  in.Status,
		Location: models.Location{
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			City:      in.City,
			Country:   in.Country,
		},
	}
	if in.TakenAt != nil {
		post.TakenAt = in.TakenAt.UTC()
	}
	post.Media = make([]models.Media, len(in.Media))
	for i, m := range in.Media {
		post.Media[i] = models.Media{
			Type:     m.Type,
			CldID:    m.CldID,
			Width:    m.Width,
			Height:   m.Height,
			Duration: m.Duration,
			Order:    i,
		}
	}
	return post
}

func resetIDs(post *models.Post) {
	post.ID = ""
	for i := range post.Media {
		post.Media[i].ID = ""
		post.Media[i].PostID = ""
	}
}
