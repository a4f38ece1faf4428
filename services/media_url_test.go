package services

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/cppla/tripjournal/models"
)

func TestImageURL(t *testing.T) {
	u := NewMediaURLs("demo")

	tests := []struct {
		name string
		opts ImageOptions
		want string
	}{
		{name: "defaults", want: "https://res.cloudinary.com/demo/image/upload/f_auto,q_auto/trip/paris"},
		{name: "sized", opts: ImageOptions{Width: 400, Height: 300}, want: "https://res.cloudinary.com/demo/image/upload/w_400,h_300,c_fill/f_auto,q_auto/trip/paris"},
		{name: "width only", opts: ImageOptions{Width: 800}, want: "https://res.cloudinary.com/demo/image/upload/w_800,h_auto,c_fill/f_auto,q_auto/trip/paris"},
		{name: "format and quality", opts: ImageOptions{Quality: 80, Format: "webp"}, want: "https://res.cloudinary.com/demo/image/upload/f_webp,q_80/trip/paris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.Assert(t, u.ImageURL("trip/paris", tt.opts), qt.Equals, tt.want)
		})
	}
}

func TestVideoURLAndThumbnail(t *testing.T) {
	c := qt.New(t)
	u := NewMediaURLs("demo")

	c.Assert(u.VideoURL("trip/gondola"), qt.Equals, "https://res.cloudinary.com/demo/video/upload/trip/gondola")

	video := &models.Post{Media: []models.Media{{Type: models.MediaVideo, CldID: "trip/gondola"}}}
	c.Assert(u.Thumbnail(video, ImageOptions{Width: 200, Height: 200}), qt.Equals,
		"https://res.cloudinary.com/demo/video/upload/w_200,h_200,c_fill/f_jpg,q_auto/trip/gondola")

	c.Assert(u.Thumbnail(&models.Post{}, ImageOptions{}), qt.Equals, "")
}
