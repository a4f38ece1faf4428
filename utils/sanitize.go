package utils

import "github.com/microcosm-cc/bluemonday"

var bodyPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// SanitizeBody cleans the long-form HTML body of a post to prevent XSS.
// Plain-text fields are not passed through here; they are escaped on output.
func SanitizeBody(input string) string {
	return bodyPolicy.Sanitize(input)
}
