package services

import (
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/asset"
	cldconfig "github.com/cloudinary/cloudinary-go/v2/config"

	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/utils"
)

// ImageOptions shapes an image delivery URL. Zero values mean "auto".
type ImageOptions struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// transformation renders opts as a provider transformation chain,
// e.g. w_400,h_300,c_fill/f_auto,q_auto.
func (o ImageOptions) transformation() string {
	var steps []string
	if o.Width > 0 || o.Height > 0 {
		steps = append(steps, "w_"+autoInt(o.Width)+",h_"+autoInt(o.Height)+",c_fill")
	}
	format := o.Format
	if format == "" {
		format = "auto"
	}
	steps = append(steps, "f_"+format+",q_"+autoInt(o.Quality))
	return strings.Join(steps, "/")
}

// MediaURLs builds provider delivery URLs for stored media references.
type MediaURLs struct {
	conf cldconfig.Configuration
}

// NewMediaURLs creates a URL builder for cloudName. URLs are unversioned and carry no
// analytics query.
func NewMediaURLs(cloudName string) *MediaURLs {
	return &MediaURLs{conf: cldconfig.Configuration{
		Cloud: cldconfig.Cloud{CloudName: cloudName},
		URL:   cldconfig.URL{Secure: true},
	}}
}

type assetKind func(publicID string, conf *cldconfig.Configuration) (*asset.Asset, error)

// ImageURL returns the transformed delivery URL of an image, e.g.
// https://res.cloudinary.com/demo/image/upload/w_400,h_300,c_fill/f_auto,q_auto/trip/paris.
func (u *MediaURLs) ImageURL(cldID string, opts ImageOptions) string {
	return u.deliver(asset.Image, cldID, opts.transformation())
}

// VideoURL returns the untransformed delivery URL of a video.
func (u *MediaURLs) VideoURL(cldID string) string {
	return u.deliver(asset.Video, cldID, "")
}

// Thumbnail returns an image URL for the first media item of post, or "" when it has none.
// Videos use the provider's poster frame.
func (u *MediaURLs) Thumbnail(post *models.Post, opts ImageOptions) string {
	if len(post.Media) == 0 {
		return ""
	}
	first := post.Media[0]
	if first.Type == models.MediaVideo {
		opts.Format = "jpg"
		return u.deliver(asset.Video, first.CldID, opts.transformation())
	}
	return u.ImageURL(first.CldID, opts)
}

func (u *MediaURLs) deliver(kind assetKind, publicID, transformation string) string {
	a, err := kind(publicID, &u.conf)
	if err != nil {
		utils.Sugar.Warnw("build media asset failed", "cldId", publicID, "error", err)
		return ""
	}
	a.Transformation = transformation
	url, err := a.String()
	if err != nil {
		utils.Sugar.Warnw("build media url failed", "cldId", publicID, "error", err)
		return ""
	}
	return url
}

func autoInt(v int) string {
	if v <= 0 {
		return "auto"
	}
	return strconv.Itoa(v)
}
