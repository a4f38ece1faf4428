package services

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/store"
)

const (
	// HomeFeedSize is how many posts the home page shows.
	HomeFeedSize = 20
	// MaxMapZoom is the deepest zoom level clustering accepts.
	MaxMapZoom = 20

	dateGroupLayout  = "January 2, 2006"
	unknownCity      = "Unknown Location"
	unknownCountry   = "Unknown"
	thumbnailSize    = 400
	mapThumbnailSize = 200
)

// HomeView is the home feed.
type HomeView struct {
	Posts  []models.Post `json:"posts"`
	Counts store.Counts  `json:"counts"`
}

// PostGroup is a labelled slice of posts.
type PostGroup struct {
	Label string        `json:"label"`
	Posts []models.Post `json:"posts"`
}

// TimelineView groups the same published posts twice: by capture day and by city.
type TimelineView struct {
	Total  int         `json:"total"`
	ByDate []PostGroup `json:"byDate"`
	ByCity []PostGroup `json:"byCity"`
}

// MapPin is one located post.
type MapPin struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Caption    string    `json:"caption,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	TakenAt    time.Time `json:"takenAt"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	MediaCount int       `json:"mediaCount"`
}

// MapCluster merges pins that fall into the same grid cell at a zoom level.
type MapCluster struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Count     int      `json:"count"`
	PostIDs   []string `json:"postIds"`
}

// CountryCount is the number of pins in one country.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// MapView is the journey map.
type MapView struct {
	Pins      []MapPin       `json:"pins"`
	Countries []CountryCount `json:"countries"`
	Zoom      *int           `json:"zoom,omitempty"`
	Clusters  []MapCluster   `json:"clusters,omitempty"`
}

// PostPage is a single public post with its rendered media URLs.
type PostPage struct {
	Post      *models.Post `json:"post"`
	MediaURLs []string     `json:"mediaUrls"`
}

// Presenter builds the read-only public projections.
type Presenter struct {
	posts *PostService
	media *MediaURLs
}

// NewPresenter creates a Presenter.
func NewPresenter(posts *PostService, media *MediaURLs) *Presenter {
	return &Presenter{posts: posts, media: media}
}

// Home returns the latest published posts and site counts.
func (p *Presenter) Home(ctx context.Context) (*HomeView, error) {
	posts, err := p.posts.ListPublished(ctx, HomeFeedSize)
	if err != nil {
		return nil, err
	}
	counts, err := p.posts.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &HomeView{Posts: posts, Counts: counts}, nil
}

// Timeline returns published posts grouped by capture date and by city.
func (p *Presenter) Timeline(ctx context.Context) (*TimelineView, error) {
	posts, err := p.posts.ListPublishedByTakenAt(ctx)
	if err != nil {
		return nil, err
	}
	return &TimelineView{
		Total:  len(posts),
		ByDate: GroupByDate(posts),
		ByCity: GroupByCity(posts),
	}, nil
}

// Post returns the public page of slug.
func (p *Presenter) Post(ctx context.Context, slug string) (*PostPage, error) {
	post, err := p.posts.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(post.Media))
	for i, m := range post.Media {
		if m.Type == models.MediaVideo {
			urls[i] = p.media.VideoURL(m.CldID)
			continue
		}
		urls[i] = p.media.ImageURL(m.CldID, ImageOptions{})
	}
	return &PostPage{Post: post, MediaURLs: urls}, nil
}

// Map returns pins for published posts with coordinates. A zoom in [0, MaxMapZoom]
// also clusters them on a grid; a negative zoom skips clustering.
func (p *Presenter) Map(ctx context.Context, zoom int) (*MapView, error) {
	posts, err := p.posts.ListPublished(ctx, 0)
	if err != nil {
		return nil, err
	}
	view := &MapView{Pins: []MapPin{}}
	for i := range posts {
		post := &posts[i]
		if !post.HasCoordinates() {
			continue
		}
		view.Pins = append(view.Pins, MapPin{
			ID:         post.ID,
			Slug:       post.Slug,
			Title:      post.DisplayTitle(),
			Caption:    post.Caption,
			Latitude:   *post.Latitude,
			Longitude:  *post.Longitude,
			City:       post.City,
			Country:    post.Country,
			TakenAt:    post.TakenAt,
			Thumbnail:  p.media.Thumbnail(post, ImageOptions{Width: mapThumbnailSize, Height: mapThumbnailSize}),
			MediaCount: len(post.Media),
		})
	}
	view.Countries = CountPinsByCountry(view.Pins)
	if zoom >= 0 {
		if zoom > MaxMapZoom {
			zoom = MaxMapZoom
		}
		view.Zoom = &zoom
		view.Clusters = ClusterPins(view.Pins, zoom)
	}
	return view, nil
}

// GroupByDate buckets posts by capture day, latest day first. Order inside a bucket is kept.
func GroupByDate(posts []models.Post) []PostGroup {
	type bucket struct {
		day   time.Time
		group PostGroup
	}
	index := map[string]int{}
	var buckets []bucket
	for _, post := range posts {
		taken := post.TakenAt
		if taken.IsZero() {
			taken = post.CreatedAt
		}
		taken = taken.UTC()
		label := taken.Format(dateGroupLayout)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, bucket{
				day:   time.Date(taken.Year(), taken.Month(), taken.Day(), 0, 0, 0, 0, time.UTC),
				group: PostGroup{Label: label},
			})
		}
		buckets[i].group.Posts = append(buckets[i].group.Posts, post)
	}
	sort.SliceStable(buckets, func(a, b int) bool { return buckets[a].day.After(buckets[b].day) })

	out := make([]PostGroup, len(buckets))
	for i, b := range buckets {
		out[i] = b.group
	}
	return out
}

// GroupByCity buckets posts by city in English collation order. Posts without a city
// are listed under "Unknown Location".
func GroupByCity(posts []models.Post) []PostGroup {
	index := map[string]int{}
	var groups []PostGroup
	for _, post := range posts {
		city := post.City
		if city == "" {
			city = unknownCity
		}
		i, ok := index[city]
		if !ok {
			i = len(groups)
			index[city] = i
			groups = append(groups, PostGroup{Label: city})
		}
		groups[i].Posts = append(groups[i].Posts, post)
	}
	col := collate.New(language.English)
	sort.SliceStable(groups, func(a, b int) bool {
		return col.CompareString(groups[a].Label, groups[b].Label) < 0
	})
	return groups
}

// CountPinsByCountry counts pins per country, most visited first.
func CountPinsByCountry(pins []MapPin) []CountryCount {
	index := map[string]int{}
	out := []CountryCount{}
	for _, pin := range pins {
		country := pin.Country
		if country == "" {
			country = unknownCountry
		}
		i, ok := index[country]
		if !ok {
			i = len(out)
			index[country] = i
			out = append(out, CountryCount{Country: country})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Country < out[b].Country
	})
	return out
}

// ClusterPins groups pins into square cells of 360/2^zoom degrees. Each cluster sits at
// the mean position of its pins. Clusters keep the order in which their first pin appears.
func ClusterPins(pins []MapPin, zoom int) []MapCluster {
	cell := 360 / math.Exp2(float64(zoom))
	type key struct{ x, y int64 }
	index := map[key]int{}
	var out []MapCluster
	for _, pin := range pins {
		k := key{
			x: int64(math.Floor((pin.Longitude + 180) / cell)),
			y: int64(math.Floor((pin.Latitude + 90) / cell)),
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MapCluster{})
		}
		c := &out[i]
		n := float64(c.Count)
		c.Latitude = (c.Latitude*n + pin.Latitude) / (n + 1)
		c.Longitude = (c.Longitude*n + pin.Longitude) / (n + 1)
		c.Count++
		c.PostIDs = append(c.PostIDs, pin.ID)
	}
	return out
}
