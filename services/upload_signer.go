package services

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/cppla/tripjournal/config"
)

// ErrSignerUnavailable means the media provider credentials are not configured.
var ErrSignerUnavailable = errors.New("upload signer unavailable: media provider credentials missing")

// UploadSignature lets the browser upload one batch directly to the media provider.
type UploadSignature struct {
	Timestamp    int64  `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"apiKey"`
	CloudName    string `json:"cloudName"`
	UploadPreset string `json:"uploadPreset"`
	Folder       string `json:"folder,omitempty"`
}

// UploadSigner issues provider upload signatures. The API secret never leaves it.
type UploadSigner struct {
	cloudName string
	apiKey    string
	apiSecret string
	preset    string
	folder    string
	now       func() time.Time
}

// NewUploadSigner creates a signer from the media provider section of c.
func NewUploadSigner(c config.AppConfig) *UploadSigner {
	return &UploadSigner{
		cloudName: c.CloudName,
		apiKey:    c.CloudAPIKey,
		apiSecret: c.CloudAPISecret,
		preset:    c.CloudUploadPreset,
		folder:    c.CloudUploadFolder,
		now:       time.Now,
	}
}

// Issue signs the current timestamp together with the upload preset and folder.
func (u *UploadSigner) Issue() (*UploadSignature, error) {
	if u.apiSecret == "" || u.apiKey == "" || u.cloudName == "" {
		return nil, ErrSignerUnavailable
	}
	ts := u.now().Unix()
	params := map[string]string{
		"timestamp":     strconv.FormatInt(ts, 10),
		"upload_preset": u.preset,
		"folder":        u.folder,
	}
	sig, err := SignParams(params, u.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}
	return &UploadSignature{
		Timestamp:    ts,
		Signature:    sig,
		APIKey:       u.apiKey,
		CloudName:    u.cloudName,
		UploadPreset: u.preset,
		Folder:       u.folder,
	}, nil
}

// SignParams computes the provider's request signature over params with the API
// secret. Empty values are not signed.
func SignParams(params map[string]string, secret string) (string, error) {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	return api.SignParameters(values, secret)
}
