package dialect

import (
	"regexp"

	"github.com/leoashcraft/County-Connect-sub009/pkg/types"
)

// MaxFieldNameLength bounds a logical field name.
const MaxFieldNameLength = 100

// fieldNamePattern admits letters, digits, underscores and dots (nested JSON
// paths), starting with a letter or underscore.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidateFieldName returns name unchanged when it is safe to interpolate
// into generated SQL, or a *types.FieldNameError otherwise. Values are always
// bound as parameters; this check is the only gate for identifiers and JSON
// paths. Dotted names are checked again per segment when turned into a JSON
// path, so "a..b" and "a." pass here but are rejected there.
func ValidateFieldName(name string) (string, error) {
	switch {
	case name == "":
		return "", &types.FieldNameError{Name: name, Reason: "empty"}
	case len(name) > MaxFieldNameLength:
		return "", &types.FieldNameError{Name: name, Reason: "longer than 100 characters"}
	case !fieldNamePattern.MatchString(name):
		return "", &types.FieldNameError{Name: name, Reason: "must match ^[A-Za-z_][A-Za-z0-9_.]*$"}
	}
	return name, nil
}

// ValidateFieldNames validates every name, stopping at the first failure.
func ValidateFieldNames(names ...string) error {
	for _, n := range names {
		if _, err := ValidateFieldName(n); err != nil {
			return err
		}
	}
	return nil
}
