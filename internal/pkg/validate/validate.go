package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

// messages overrides the generic "field failed tag" text for the few rules
// whose wording existing clients depend on.
var messages = map[string]string{
	"TargetEmails.min":      "At least one target email is required",
	"TargetEmails.required": "At least one target email is required",
}

// Struct validates the given struct using its validate tags.
// Failures are joined into a single human-readable error, never partially applied.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var msgs []string
	for _, fe := range ve {
		if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, m)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, ", "))
}

// Email reports whether s is a well-formed email address. Used where a
// single value is checked outside a request struct (relay reply-to).
func Email(s string) bool {
	return v.Var(s, "required,email") == nil
}
