package validation_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/validation"
)

func f64(v float64) *float64 { return &v }

func validInput() *validation.PostInput {
	return &validation.PostInput{
		Title: "Arrival in Paris",
		Media: []validation.MediaInput{{Type: models.MediaImage, CldID: "x"}},
	}
}

func fieldsOf(c *qt.C, err error) []string {
	c.Helper()
	ve, ok := err.(*validation.Error)
	c.Assert(ok, qt.IsTrue, qt.Commentf("expected *validation.Error, got %T", err))
	names := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidatePostAcceptsMinimalPayload(t *testing.T) {
	c := qt.New(t)

	in := validInput()
	validation.Normalize(in)

	c.Assert(validation.ValidatePost(in), qt.IsNil)
	c.Assert(in.Status, qt.Equals, models.StatusDraft)
}

func TestValidatePostMediaRequired(t *testing.T) {
	tests := []struct {
		name  string
		media []validation.MediaInput
		field string
	}{
		{name: "nil media", media: nil, field: "media"},
		{name: "empty media", media: []validation.MediaInput{}, field: "media"},
		{name: "blank cldId", media: []validation.MediaInput{{Type: models.MediaImage, CldID: "   "}}, field: "media[0].cldId"},
		{name: "unknown type", media: []validation.MediaInput{{Type: "AUDIO", CldID: "x"}}, field: "media[0].type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			in := validInput()
			in.Media = tt.media
			validation.Normalize(in)

			err := validation.ValidatePost(in)
			c.Assert(err, qt.IsNotNil)
			c.Assert(validation.IsValidationError(err), qt.IsTrue)
			c.Assert(fieldsOf(c, err), qt.Contains, tt.field)
		})
	}
}

func TestValidatePostTooManyMedia(t *testing.T) {
	c := qt.New(t)

	in := validInput()
	in.Media = make([]validation.MediaInput, validation.MaxMediaPerPost+1)
	for i := range in.Media {
		in.Media[i] = validation.MediaInput{Type: models.MediaImage, CldID: "x"}
	}

	c.Assert(fieldsOf(c, validation.ValidatePost(in)), qt.Contains, "media")
}

func TestValidatePostCoordinateRanges(t *testing.T) {
	tests := []struct {
		name   string
		lat    *float64
		lon    *float64
		fields []string
	}{
		{name: "both valid", lat: f64(48.85), lon: f64(2.29)},
		{name: "edges valid", lat: f64(-90), lon: f64(180)},
		{name: "zero is a coordinate", lat: f64(0), lon: f64(0)},
		{name: "latitude too high", lat: f64(90.5), lon: f64(2), fields: []string{"latitude"}},
		{name: "longitude too low", lat: f64(10), lon: f64(-180.1), fields: []string{"longitude"}},
		{name: "both out of range", lat: f64(-91), lon: f64(181), fields: []string{"latitude", "longitude"}},
		// range is still reported when the other coordinate is missing
		{name: "latitude alone out of range", lat: f64(100), fields: []string{"latitude", "longitude"}},
		{name: "longitude alone out of range", lon: f64(-200), fields: []string{"longitude", "latitude"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			in := validInput()
			in.Latitude, in.Longitude = tt.lat, tt.lon
			validation.Normalize(in)

			err := validation.ValidatePost(in)
			if len(tt.fields) == 0 {
				c.Assert(err, qt.IsNil)
				return
			}
			got := fieldsOf(c, err)
			for _, f := range tt.fields {
				c.Assert(got, qt.Contains, f)
			}
		})
	}
}

func TestValidatePostHalfCoordinateRejected(t *testing.T) {
	c := qt.New(t)

	in := validInput()
	in.Latitude = f64(45)
	validation.Normalize(in)

	err := validation.ValidatePost(in)
	c.Assert(err, qt.ErrorMatches, "latitude and longitude must be provided together")
}

func TestValidatePostCityWithoutCoordinates(t *testing.T) {
	c := qt.New(t)

	in := validInput()
	in.City, in.Country = " Venice ", "Italy"
	validation.Normalize(in)

	c.Assert(validation.ValidatePost(in), qt.IsNil)
	c.Assert(in.City, qt.Equals, "Venice")
}

func TestValidatePostAggregatesViolations(t *testing.T) {
	c := qt.New(t)

	in := &validation.PostInput{
		Status:   "ARCHIVED",
		Latitude: f64(120),
		Media:    []validation.MediaInput{{Type: models.MediaVideo, Duration: f64(-1)}},
	}
	validation.Normalize(in)

	got := fieldsOf(c, validation.ValidatePost(in))
	c.Assert(got, qt.Contains, "status")
	c.Assert(got, qt.Contains, "latitude")
	c.Assert(got, qt.Contains, "media[0].cldId")
	c.Assert(got, qt.Contains, "media[0].duration")
}
