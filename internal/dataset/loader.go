package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
)

// periodPattern extracts the year and month a source file covers from its
// name, e.g. apartments_pl_2023_09.csv.
var periodPattern = regexp.MustCompile(`(\d{4})_(\d{2})`)

// Loader merges the per-period CSV source files of one dataset directory into
// a single training table. Files whose name contains "rent" are skipped; sale
// and rental prices must not mix. Exists only for the duration of a training
// run.
type Loader struct {
	// Kinds fixes the semantic type of known columns. Columns not listed
	// are inferred: numeric when every non-empty cell parses as a float.
	Kinds map[string]Kind
}

// LoadDir reads every eligible CSV under dir, tags each file's rows with the
// first day of its period as a "date" column, concatenates them, drops
// duplicate ids keeping the last occurrence, and drops the id column.
func (l *Loader) LoadDir(dir string) (*Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset directory %q", dir)
	}

	var frames []*Frame
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.Contains(name, "rent") {
			continue
		}
		m := periodPattern.FindStringSubmatch(name)
		if m == nil {
			log.Warn().Str("file", name).Msg("no period in file name, skipping")
			continue
		}
		period := fmt.Sprintf("%s-%s-01", m[1], m[2])

		f, err := l.loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "loading %q", name)
		}
		dates := make([]string, f.NumRows())
		for i := range dates {
			dates[i] = period
		}
		if err := f.AddCategorical("date", dates); err != nil {
			return nil, err
		}
		log.Info().Str("file", name).Int("records", f.NumRows()).Str("period", period).Msg("loaded source file")
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, errors.Newf("no usable CSV files in %q", dir)
	}

	combined, err := Concat(frames...)
	if err != nil {
		return nil, err
	}
	return dropDuplicateIDs(combined)
}

func (l *Loader) loadFile(path string) (*Frame, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer fd.Close()

	r := csv.NewReader(fd)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) < 1 {
		return nil, errors.New("empty csv")
	}

	header := records[0]
	rows := records[1:]
	f := NewFrame(len(rows))
	for j, name := range header {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			}
		}
		if l.columnKind(name, raw) == Numeric {
			vals := make([]float64, len(raw))
			for i, s := range raw {
				if s == "" {
					vals[i] = math.NaN()
					continue
				}
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					vals[i] = math.NaN()
					continue
				}
				vals[i] = v
			}
			if err := f.AddNumeric(name, vals); err != nil {
				return nil, err
			}
			continue
		}
		if err := f.AddCategorical(name, raw); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (l *Loader) columnKind(name string, raw []string) Kind {
	if k, ok := l.Kinds[name]; ok {
		return k
	}
	seen := false
	for _, s := range raw {
		if s == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return Categorical
		}
	}
	if !seen {
		return Categorical
	}
	return Numeric
}

// dropDuplicateIDs removes rows repeating an earlier id, keeping the last
// occurrence, then drops the id column. A frame without an id column is
// returned unchanged.
func dropDuplicateIDs(f *Frame) (*Frame, error) {
	id, ok := f.Column("id")
	if !ok || id.Kind != Categorical {
		return f, nil
	}
	last := make(map[string]int, f.NumRows())
	for i, v := range id.Strs {
		last[v] = i
	}
	keep := make([]bool, f.NumRows())
	dropped := 0
	for i, v := range id.Strs {
		keep[i] = last[v] == i
		if !keep[i] {
			dropped++
		}
	}
	out, err := f.FilterRows(keep)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("removed duplicate listings")
	}
	out.Drop("id")
	return out, nil
}
