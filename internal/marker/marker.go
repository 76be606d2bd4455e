// Package marker compiles operator-supplied tag markers into matching rules.
package marker

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/kagof/trello-link-github-action/internal/logging"
)

var (
	alphaMarker     = regexp.MustCompile(`^[A-Za-z]+$`)
	alphaDashMarker = regexp.MustCompile(`^[A-Za-z]+-$`)
)

// Symbols lists the single-character markers accepted besides alpha markers.
const Symbols = "!@#$%^&*+="

// ConfigurationError reports a marker that cannot be compiled.
type ConfigurationError struct {
	Marker string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid marker %q: %s", e.Marker, e.Reason)
}

// Rule matches marker-prefixed numeric tags in free text.
type Rule struct {
	Pattern   *regexp.Regexp
	PrefixLen int
}

// Compile validates m and builds the Rule matching `<m><digits>`.
// Alpha markers (optionally ending in '-') must start a word; symbol
// markers may directly follow word characters.
func Compile(m string) (*Rule, error) {
	var prefix string
	switch {
	case alphaDashMarker.MatchString(m), alphaMarker.MatchString(m):
		prefix = `\b` + m
	case utf8.RuneCountInString(m) > 1:
		return nil, &ConfigurationError{Marker: m, Reason: "special character marker must be a single character"}
	case len(m) == 1 && isSymbol(m[0]):
		prefix = regexp.QuoteMeta(m)
	default:
		return nil, &ConfigurationError{
			Marker: m,
			Reason: "marker must be an alpha string, an alpha string optionally followed by '-', or one of " + Symbols,
		}
	}

	logging.Info("marker set", "marker", m)

	return &Rule{
		Pattern:   regexp.MustCompile(prefix + `[0-9]+\b`),
		PrefixLen: len(m),
	}, nil
}

// FindAll returns every non-overlapping match in text, left to right.
func (r *Rule) FindAll(text string) []string {
	return r.Pattern.FindAllString(text, -1)
}

// Strip removes the marker from a matched tag, leaving its identifier.
func (r *Rule) Strip(match string) string {
	if len(match) <= r.PrefixLen {
		return ""
	}
	return match[r.PrefixLen:]
}

func isSymbol(c byte) bool {
	for i := 0; i < len(Symbols); i++ {
		if Symbols[i] == c {
			return true
		}
	}
	return false
}
