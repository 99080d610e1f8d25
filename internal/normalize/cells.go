package normalize

import (
	"math"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"tablenorm/pkg/contracts/domain"
)

// Source notations for withheld values. Both are stored as absent, never
// as zero.
var suppressedMarkers = map[string]bool{
	"..": true,
	"-":  true,
}

// bidiStripper removes Unicode format controls (RLM, LRM, and friends)
// that bilingual exports embed around Hebrew text.
var bidiStripper = runes.Remove(runes.In(unicode.Cf))

// CleanText strips directional format characters and collapses runs of
// whitespace. Labels and header names go through this before any pattern
// matching.
func CleanText(s string) string {
	out, _, err := transform.String(bidiStripper, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeCell parses one raw cell into a typed value plus quality
// flags. It is a pure function and recovers every parse failure locally
// as an absent value.
//
// Parenthesized numerals are this source's low-reliability marker, not a
// negative sign; the value is kept positive. Any negative numeric result
// is likewise coerced to its absolute value, since no statistic in this
// document family is negative.
func NormalizeCell(raw domain.RawCell) domain.NormalizedCell {
	if raw.IsEmpty() {
		return domain.NormalizedCell{}
	}

	// Readers hand over pre-typed numbers directly.
	if _, ok := raw.Value.(string); !ok {
		v, err := cast.ToFloat64E(raw.Value)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NormalizedCell{}
		}
		return cellValue(v, 0)
	}

	s := CleanText(raw.Value.(string))
	if s == "" {
		return domain.NormalizedCell{}
	}
	if suppressedMarkers[s] {
		return domain.NormalizedCell{Flags: domain.FlagSuppressed}
	}

	var flags domain.CellFlag
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if _, err := parseNumber(inner); err == nil {
			s = inner
			flags |= domain.FlagLowReliability
		}
	}

	v, err := parseNumber(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Unparsable text is absent, with no flag.
		return domain.NormalizedCell{}
	}
	return cellValue(v, flags)
}

// cellText returns the raw cell content as text.
func cellText(c domain.RawCell) string {
	if c.Value == nil {
		return ""
	}
	return cast.ToString(c.Value)
}

// parseNumber parses a numeric string after stripping thousands
// separators.
func parseNumber(s string) (float64, error) {
	return cast.ToFloat64E(strings.ReplaceAll(s, ",", ""))
}

func cellValue(v float64, flags domain.CellFlag) domain.NormalizedCell {
	v = math.Abs(v)
	return domain.NormalizedCell{Value: &v, Flags: flags}
}
