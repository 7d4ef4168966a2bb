package pipeline

import (
	"sort"
	"sync"

	"github.com/JanKosminski/HousingPricesInPoland/internal/dataset"
	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// CategoryEncoder finalizes categorical columns into integer codes over
// domains frozen at fit time. Every domain contains the UnknownCategory
// sentinel, so a value never seen during training maps to the sentinel's
// code instead of raising an error. Once fitted (or deserialized) the
// encoder is read-only; Transform is safe for concurrent use.
type CategoryEncoder struct {
	// Domains maps column name to its sorted category list. Serialized
	// into the model artifact; the code of a category is its index.
	Domains map[string][]string `json:"domains"`

	codesOnce sync.Once
	codes     map[string]map[string]int
}

// NewCategoryEncoder creates an unfitted encoder.
func NewCategoryEncoder() *CategoryEncoder {
	return &CategoryEncoder{}
}

// IsFitted reports whether Fit has frozen the domains.
func (e *CategoryEncoder) IsFitted() bool { return e.Domains != nil }

// Fit freezes the category domain of every categorical column from the
// distinct values observed in the training table, always including the
// sentinel. Domains are sorted so codes are deterministic across runs.
func (e *CategoryEncoder) Fit(f *dataset.Frame) error {
	if f.NumRows() == 0 {
		return errors.New("CategoryEncoder.Fit: empty training table")
	}
	e.Domains = make(map[string][]string)
	for _, c := range f.Columns() {
		if c.Kind != dataset.Categorical {
			continue
		}
		seen := map[string]bool{UnknownCategory: true}
		for _, v := range c.Strs {
			if v != "" {
				seen[v] = true
			}
		}
		domain := make([]string, 0, len(seen))
		for v := range seen {
			domain = append(domain, v)
		}
		sort.Strings(domain)
		e.Domains[c.Name] = domain
	}
	e.codes = newCodeIndex(e.Domains)
	return nil
}

// Transform replaces every categorical column with its integer codes, in
// place, preserving column order. Values outside the frozen domain (and
// residual missing cells) take the sentinel's code. Categorical columns the
// encoder has never seen are rejected: they would change the column set the
// model was trained on.
func (e *CategoryEncoder) Transform(f *dataset.Frame) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError("CategoryEncoder", "Transform")
	}
	index := e.codeIndex()
	for _, c := range f.Columns() {
		if c.Kind != dataset.Categorical {
			continue
		}
		codes, ok := index[c.Name]
		if !ok {
			return errors.Newf("CategoryEncoder.Transform: column %q not present at fit time", c.Name)
		}
		unknown := codes[UnknownCategory]
		nums := make([]float64, len(c.Strs))
		for i, v := range c.Strs {
			code, ok := codes[v]
			if !ok {
				code = unknown
			}
			nums[i] = float64(code)
		}
		c.Kind = dataset.Numeric
		c.Nums = nums
		c.Strs = nil
	}
	return nil
}

// CategoricalColumns returns the names of the encoded columns, sorted.
func (e *CategoryEncoder) CategoricalColumns() []string {
	names := make([]string, 0, len(e.Domains))
	for name := range e.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// codeIndex returns the value-to-code index. Fit builds it eagerly; after
// deserialization, when only Domains survives the round-trip, it is rebuilt
// exactly once even under concurrent Transform calls.
func (e *CategoryEncoder) codeIndex() map[string]map[string]int {
	e.codesOnce.Do(func() {
		if e.codes == nil {
			e.codes = newCodeIndex(e.Domains)
		}
	})
	return e.codes
}

func newCodeIndex(domains map[string][]string) map[string]map[string]int {
	index := make(map[string]map[string]int, len(domains))
	for name, domain := range domains {
		codes := make(map[string]int, len(domain))
		for i, v := range domain {
			codes[v] = i
		}
		index[name] = codes
	}
	return index
}
