package sanitize

import (
	"encoding/json"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// policy strips all HTML markup. Submissions are rendered into plain-text
// notification bodies, so no tag survives sanitization.
var policy = bluemonday.StrictPolicy()

// String removes HTML markup from s. bluemonday entity-escapes what
// remains, so the output is unescaped back to plain text.
func String(s string) string {
	return html.UnescapeString(policy.Sanitize(s))
}

// Value renders an arbitrary payload value as sanitized text. Strings are
// stripped of markup; structured values are rendered as their JSON form.
func Value(v interface{}) string {
	if s, ok := v.(string); ok {
		return String(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
