// Package store persists posts and their media through GORM.
//
// A post and its media are always written as one unit inside a transaction, so
// readers never observe a post whose media set is half replaced.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/tripjournal/models"
)

var (
	// ErrNotFound is returned when no post matches the given id or slug.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken is returned when the unique slug index rejects a write.
	ErrSlugTaken = errors.New("slug already taken")
)

// Order selects the chronological ordering of list queries.
type Order int

const (
	ByCreatedDesc Order = iota
	ByTakenDesc
	ByUpdatedDesc
)

func (o Order) clause() string {
	switch o {
	case ByTakenDesc:
		return "taken_at DESC, created_at DESC"
	case ByUpdatedDesc:
		return "updated_at DESC"
	default:
		return "created_at DESC"
	}
}

// postColumns are the columns a full update rewrites. Slug, id and created_at are stable.
var postColumns = []string{
	"title", "caption", "body", "taken_at",
	"latitude", "longitude", "city", "country",
	"status", "updated_at",
}

// PostStore is the gorm-backed content store.
type PostStore struct {
	db *gorm.DB
}

// NewPostStore creates a PostStore on db.
func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func orderedMedia(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// Create inserts post together with its media.
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(post).Error
	})
	return translate("create post", err)
}

// FindByID returns the post with id regardless of its status.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Media", orderedMedia).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, translate("find post", err)
	}
	return &post, nil
}

// FindPublishedByID returns the post with id only when it is published.
func (s *PostStore) FindPublishedByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Media", orderedMedia).
		Where("id = ? AND status = ?", id, models.StatusPublished).First(&post).Error
	if err != nil {
		return nil, translate("find post", err)
	}
	return &post, nil
}

// FindPublishedBySlug returns the published post with slug.
func (s *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Media", orderedMedia).
		Where("slug = ? AND status = ?", slug, models.StatusPublished).First(&post).Error
	if err != nil {
		return nil, translate("find post by slug", err)
	}
	return &post, nil
}

// SlugExists reports whether any post, draft or published, already uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, translate("check slug", err)
	}
	return n > 0, nil
}

// ReplaceAggregate rewrites post's columns and swaps its whole media set in one transaction.
// post.Media must already carry its final order values.
func (s *PostStore) ReplaceAggregate(ctx context.Context, post *models.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		if err := tx.Select("id", "slug", "created_at").Where("id = ?", post.ID).First(&existing).Error; err != nil {
			return err
		}
		post.Slug = existing.Slug
		post.CreatedAt = existing.CreatedAt
		post.UpdatedAt = time.Now().UTC()

		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Media{}).Error; err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		if err := tx.Model(&models.Post{ID: post.ID}).Select(postColumns).Omit("Media").Updates(post).Error; err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		if len(post.Media) == 0 {
			return nil
		}
		for i := range post.Media {
			post.Media[i].ID = ""
			post.Media[i].PostID = post.ID
		}
		if err := tx.Create(&post.Media).Error; err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
		return nil
	})
	return translate("replace post", err)
}

// UpdateStatus sets the publication state of post id.
func (s *PostStore) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleStatus flips post id between draft and published in a single statement.
func (s *PostStore) ToggleStatus(ctx context.Context, id string) error {
	flip := gorm.Expr("CASE WHEN status = ? THEN ? ELSE ? END",
		models.StatusPublished, models.StatusDraft, models.StatusPublished)
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"status": flip, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate("toggle status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes post id and all of its media.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Media{}).Error; err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return translate("delete post", err)
}

// ListByStatus lists posts in status with their media. limit <= 0 means no limit.
func (s *PostStore) ListByStatus(ctx context.Context, status models.Status, order Order, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := s.db.WithContext(ctx).Preload("Media", orderedMedia).Where("status = ?", status).Order(order.clause())
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}

// ListAll lists every post, drafts included, newest first.
func (s *PostStore) ListAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("Media", orderedMedia).Order(ByCreatedDesc.clause()).Find(&posts).Error; err != nil {
		return nil, translate("list posts", err)
	}
	return posts, nil
}

// Counts aggregates published content for feed headers.
type Counts struct {
	Posts     int64 `json:"posts"`
	Media     int64 `json:"media"`
	Cities    int64 `json:"cities"`
	Countries int64 `json:"countries"`
}

// PublishedCounts counts published posts, their media and the distinct places they cover.
func (s *PostStore) PublishedCounts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	published := func() *gorm.DB {
		return db.Model(&models.Post{}).Where("status = ?", models.StatusPublished)
	}

	if err := published().Count(&c.Posts).Error; err != nil {
		return c, translate("count posts", err)
	}
	if err := db.Model(&models.Media{}).
		Joins("JOIN posts ON posts.id = media.post_id").
		Where("posts.status = ?", models.StatusPublished).
		Count(&c.Media).Error; err != nil {
		return c, translate("count media", err)
	}
	if err := published().Where("city <> ''").Distinct("city").Count(&c.Cities).Error; err != nil {
		return c, translate("count cities", err)
	}
	if err := published().Where("country <> ''").Distinct("country").Count(&c.Countries).Error; err != nil {
		return c, translate("count countries", err)
	}
	return c, nil
}

// StatusCounts counts posts per publication state plus those placed on the map.
type StatusCounts struct {
	Total        int64 `json:"total"`
	Published    int64 `json:"published"`
	Drafts       int64 `json:"drafts"`
	WithLocation int64 `json:"withLocation"`
}

// StatusCounts computes StatusCounts over every post.
func (s *PostStore) StatusCounts(ctx context.Context) (StatusCounts, error) {
	var sc StatusCounts
	db := s.db.WithContext(ctx)
	type row struct {
		Status models.Status
		N      int64
	}
	var rows []row
	if err := db.Model(&models.Post{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return sc, translate("count by status", err)
	}
	for _, r := range rows {
		sc.Total += r.N
		switch r.Status {
		case models.StatusPublished:
			sc.Published = r.N
		case models.StatusDraft:
			sc.Drafts = r.N
		}
	}
	if err := db.Model(&models.Post{}).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Count(&sc.WithLocation).Error; err != nil {
		return sc, translate("count located", err)
	}
	return sc, nil
}

// translate maps gorm errors onto the store's sentinels and wraps everything else.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrSlugTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
