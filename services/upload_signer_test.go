package services

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/cppla/tripjournal/config"
)

func TestSignParamsDocumentedExample(t *testing.T) {
	c := qt.New(t)

	sig, err := SignParams(map[string]string{
		"timestamp": "1315060510",
		"public_id": "sample_image",
		"eager":     "w_400,h_300,c_pad|w_260,h_200,c_crop",
	}, "abcd")

	c.Assert(err, qt.IsNil)
	c.Assert(sig, qt.Equals, "bfd09f95f331f558cbd1320e67aa8d488770583e")
}

func TestSignParamsSkipsEmptyValues(t *testing.T) {
	c := qt.New(t)

	withEmpty, err := SignParams(map[string]string{
		"timestamp":     "1700000000",
		"upload_preset": "trip_unsigned",
		"folder":        "",
	}, "s3cr3t")

	c.Assert(err, qt.IsNil)
	c.Assert(withEmpty, qt.Equals, "714af4f799dd38cd39bffad9ebd33dc62f4b0008")
}

func newTestSigner(cfg config.AppConfig) *UploadSigner {
	s := NewUploadSigner(cfg)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestIssue(t *testing.T) {
	c := qt.New(t)

	sig, err := newTestSigner(config.AppConfig{
		CloudName:         "demo",
		CloudAPIKey:       "123456",
		CloudAPISecret:    "s3cr3t",
		CloudUploadPreset: "trip_unsigned",
		CloudUploadFolder: "europe-trip",
	}).Issue()
	c.Assert(err, qt.IsNil)
	c.Assert(sig, qt.DeepEquals, &UploadSignature{
		Timestamp:    1700000000,
		Signature:    "2ea43058532fbaddace68c44bf07331a949ca968",
		APIKey:       "123456",
		CloudName:    "demo",
		UploadPreset: "trip_unsigned",
		Folder:       "europe-trip",
	})
}

func TestIssueWithoutCredentials(t *testing.T) {
	c := qt.New(t)

	_, err := newTestSigner(config.AppConfig{CloudName: "demo", CloudAPIKey: "k"}).Issue()
	c.Assert(err, qt.ErrorIs, ErrSignerUnavailable)
}
