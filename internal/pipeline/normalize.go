// Package pipeline implements the shared feature transformation applied to
// both the full training table and single inference requests. Both paths run
// the exact same code; only target-column handling differs by mode. Every
// stage operates value-locally except imputation and category encoding,
// whose state is captured once at fit time and reused verbatim at inference.
package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// DefaultBoolean is substituted for boolean-like values outside both synonym
// sets. Substitution emits an UnexpectedValueWarning; it never fails a row.
const DefaultBoolean = 0

var (
	trueSynonyms  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "on": true}
	falseSynonyms = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "off": true}
)

// FoldText lowercases, trims, strips diacritics, and drops any rune that
// still has no ASCII form. Depends only on the value itself, so one row and
// a full table normalize identically, and applying it twice is a no-op.
// The NFKD+strip chain collapses locale-specific spellings ("Kraków" ->
// "krakow"); a transform.Transformer carries internal buffers and is not
// safe for concurrent use, so each call builds its own.
func FoldText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	diacriticFold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(diacriticFold, s)
	if err != nil {
		folded = s
	}
	out := make([]byte, 0, len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// CoerceBoolean maps a boolean-like string into {1, 0} using the synonym
// tables, case-insensitively. Values in neither set yield DefaultBoolean and
// ok=false.
func CoerceBoolean(v string) (val float64, ok bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case trueSynonyms[v]:
		return 1, true
	case falseSynonyms[v]:
		return 0, true
	default:
		return DefaultBoolean, false
	}
}

// Normalize coerces the designated boolean-like columns to numeric {1,0}
// columns and folds every remaining categorical column's text. Unexpected
// boolean values are replaced with the default and reported through the
// warning hook; missing cells stay missing for the imputer. Already-numeric
// boolean columns are left untouched, so normalizing twice yields the same
// table.
func Normalize(f *dataset.Frame, booleanColumns []string) {
	boolSet := make(map[string]bool, len(booleanColumns))
	for _, name := range booleanColumns {
		boolSet[name] = true
	}
	for _, c := range f.Columns() {
		if c.Kind != dataset.Categorical {
			continue
		}
		if boolSet[c.Name] {
			coerceColumn(c)
			continue
		}
		for i, v := range c.Strs {
			if v == "" {
				continue
			}
			c.Strs[i] = FoldText(v)
		}
	}
}

func coerceColumn(c *dataset.Column) {
	nums := make([]float64, len(c.Strs))
	for i, v := range c.Strs {
		if v == "" {
			nums[i] = DefaultBoolean
			continue
		}
		val, ok := CoerceBoolean(v)
		if !ok {
			errors.Warn(errors.NewUnexpectedValueWarning(c.Name, v, DefaultBoolean))
		}
		nums[i] = val
	}
	c.Kind = dataset.Numeric
	c.Nums = nums
	c.Strs = nil
}
