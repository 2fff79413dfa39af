// Package benchmark gives access to the published Derigs-Schaefer results
// and to the naming conventions of the benchmark instance and solution files.
package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Variant is a problem variant of the benchmark.
type Variant string

const (
	VariantBase Variant = "base"
	VariantDH   Variant = "dh"
	VariantDHL  Variant = "dhl"
)

// Variants returns the known problem variants.
func Variants() []Variant { return []Variant{VariantBase, VariantDH, VariantDHL} }

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants() {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// CrewRange is the half-open range [Min, Max) of crew sizes studied for an
// instance size.
type CrewRange struct {
	Min int
	Max int
}

// Values lists the crew sizes of the range.
func (r CrewRange) Values() []int {
	out := make([]int, 0, r.Max-r.Min)
	for c := r.Min; c < r.Max; c++ {
		out = append(out, c)
	}
	return out
}

var crewRanges = map[int]CrewRange{
	50:  {27, 32},
	100: {44, 49},
	150: {69, 74},
	200: {93, 98},
	250: {108, 113},
	300: {129, 134},
	350: {144, 149},
	400: {159, 164},
	450: {182, 187},
	500: {204, 209},
}

// CrewRangeFor returns the crew sizes studied for an instance size.
func CrewRangeFor(activities int) (CrewRange, bool) {
	r, ok := crewRanges[activities]
	return r, ok
}

// InstanceSizes returns the benchmark instance sizes in ascending order.
func InstanceSizes() []int {
	out := make([]int, 0, len(crewRanges))
	for n := range crewRanges {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// InstanceName is "csp<n>".
func InstanceName(activities int) string { return fmt.Sprintf("csp%d", activities) }

// InstanceFile is "<dir>/csp<n>.txt".
func InstanceFile(dir string, activities int) string {
	return filepath.Join(dir, InstanceName(activities)+".txt")
}

// SolutionFile is "<dir>/csp<n>_<variant>_cm<crew>_sol.txt".
func SolutionFile(dir string, v Variant, activities, crew int) string {
	return filepath.Join(dir, fmt.Sprintf("csp%d_%s_cm%d_sol.txt", activities, v, crew))
}

// Row is one line of the results table, keyed by column name.
type Row map[string]string

// Objective returns the published objective of the variant.
func (r Row) Objective(v Variant) (int, error) {
	return r.intColumn(string(v) + "_obj")
}

// ClaimedOptimal reports whether the published objective is claimed optimal.
func (r Row) ClaimedOptimal(v Variant) (bool, error) {
	n, err := r.intColumn(string(v) + "_opt")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r Row) intColumn(col string) (int, error) {
	s, ok := r[col]
	if !ok {
		return 0, fmt.Errorf("results: missing column %s", col)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("results: column %s: %w", col, err)
	}
	return n, nil
}

type key struct{ activities, crew int }

// Results is the parsed Derigs-Schaefer results table.
type Results struct {
	rows map[key]Row
}

// LoadResults reads the ';'-separated results file at path.
func LoadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseResults(f)
}

// ParseResults reads a results table with columns number_act, number_crew,
// <variant>_obj and <variant>_opt.
func ParseResults(r io.Reader) (*Results, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("results header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	res := &Results{rows: make(map[key]Row)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("results: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		acts, err := row.intColumn("number_act")
		if err != nil {
			return nil, err
		}
		crew, err := row.intColumn("number_crew")
		if err != nil {
			return nil, err
		}
		k := key{acts, crew}
		// first match wins
		if _, dup := res.rows[k]; !dup {
			res.rows[k] = row
		}
	}
	return res, nil
}

// Lookup returns the row for an instance size and crew count.
func (r *Results) Lookup(activities, crew int) (Row, bool) {
	row, ok := r.rows[key{activities, crew}]
	return row, ok
}

// Objective returns the published objective, or -1 when no row matches.
func (r *Results) Objective(activities, crew int, v Variant) (int, error) {
	row, ok := r.Lookup(activities, crew)
	if !ok {
		return -1, nil
	}
	return row.Objective(v)
}

// ClaimedOptimal reports whether the published objective was proven optimal.
// It returns false when no row matches.
func (r *Results) ClaimedOptimal(activities, crew int, v Variant) (bool, error) {
	row, ok := r.Lookup(activities, crew)
	if !ok {
		return false, nil
	}
	return row.ClaimedOptimal(v)
}

// Len returns the number of rows.
func (r *Results) Len() int { return len(r.rows) }
