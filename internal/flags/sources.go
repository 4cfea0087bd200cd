package flags

import (
	"net/url"
	"strings"
)

const (
	enableParamPrefix  = "enable-"
	disableParamPrefix = "disable-"
	enableAllParam     = "enhance-all"
)

// Overrides captures one-time flag overrides read at initialization, sourced
// from URL query parameters or programmatic options.
type Overrides struct {
	Flags     map[string]bool
	EnableAll bool
}

// ParseQuery extracts overrides from a raw URL query string. Recognised
// parameters: enable-<flag>=true, disable-<flag>=true and the enable-all
// test parameter. Anything else is ignored; disable wins over enable for the
// same flag. Malformed query strings yield empty overrides.
func ParseQuery(rawQuery string) Overrides {
	overrides := Overrides{Flags: map[string]bool{}}
	if strings.TrimSpace(rawQuery) == "" {
		return overrides
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return overrides
	}

	if isTruthy(values.Get(enableAllParam)) {
		overrides.EnableAll = true
	}
	for key := range values {
		if name, ok := strings.CutPrefix(key, enableParamPrefix); ok && name != "" {
			if isTruthy(values.Get(key)) {
				overrides.Flags[name] = true
			}
		}
	}
	// Second pass so disable always wins regardless of parameter order.
	for key := range values {
		if name, ok := strings.CutPrefix(key, disableParamPrefix); ok && name != "" {
			if isTruthy(values.Get(key)) {
				overrides.Flags[name] = false
			}
		}
	}
	return overrides
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
