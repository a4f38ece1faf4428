// Package validation checks post payloads before they reach the store.
//
// It wraps a singleton go-playground/validator instance that reports field names
// by their JSON tags, and aggregates every violation of a payload into one *Error
// so clients can fix the whole request at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/tripjournal/models"
)

// MaxMediaPerPost bounds the media list of a single post.
const MaxMediaPerPost = 50

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// MediaInput is one media item as submitted by the editor.
type MediaInput struct {
	Type     models.MediaType `json:"type" validate:"required,oneof=IMAGE VIDEO"`
	CldID    string           `json:"cldId" validate:"required,max=255"`
	Width    *int             `json:"width" validate:"omitempty,gte=0"`
	Height   *int             `json:"height" validate:"omitempty,gte=0"`
	Duration *float64         `json:"duration" validate:"omitempty,gte=0"`
	// Order is accepted for compatibility and always overwritten by submission order.
	Order int `json:"order"`
}

// PostInput is the create/update payload for a post and its media.
type PostInput struct {
	Title     string        `json:"title" validate:"max=255"`
	Caption   string        `json:"caption"`
	Body      string        `json:"body"`
	TakenAt   *time.Time    `json:"takenAt"`
	Latitude  *float64      `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64      `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	City      string        `json:"city" validate:"max=128"`
	Country   string        `json:"country" validate:"max=128"`
	Status    models.Status `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
	Media     []MediaInput  `json:"media" validate:"required,min=1,max=50,dive"`
}

// FieldError is a single violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error aggregates every violation found in one payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) add(field, tag, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Tag: tag, Message: message})
}

// IsValidationError reports whether err carries payload violations.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Normalize trims free text and applies defaults. It is applied before ValidatePost.
func Normalize(in *PostInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.Caption = strings.TrimSpace(in.Caption)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	for i := range in.Media {
		in.Media[i].CldID = strings.TrimSpace(in.Media[i].CldID)
		in.Media[i].Type = models.MediaType(strings.ToUpper(string(in.Media[i].Type)))
	}
}

// ValidatePost checks in and returns nil or an *Error listing every violation.
func ValidatePost(in *PostInput) error {
	out := &Error{}

	if err := GetValidator().Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			out.add("unknown", "unknown", err.Error())
			return out
		}
		for _, fe := range fieldErrs {
			out.add(fieldPath(fe), fe.Tag(), translate(fe))
		}
	}

	// Coordinates travel as a pair; each range is still checked independently above.
	if (in.Latitude == nil) != (in.Longitude == nil) {
		missing := "longitude"
		if in.Latitude == nil {
			missing = "latitude"
		}
		out.add(missing, "required_with", "latitude and longitude must be provided together")
	}

	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

// fieldPath strips the root struct name: "PostInput.media[0].cldId" -> "media[0].cldId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"max":      "%s must be at most %s",
	"min":      "%s must be at least %s",
}

func translate(fe validator.FieldError) string {
	field := fieldPath(fe)
	tpl, ok := messageTemplates[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
	if strings.Count(tpl, "%s") == 2 {
		return fmt.Sprintf(tpl, field, fe.Param())
	}
	return fmt.Sprintf(tpl, field)
}
