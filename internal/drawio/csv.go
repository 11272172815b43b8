package drawio

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// isMissingCell reports whether a text cell stands for a missing value.
func isMissingCell(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

// inferColumn picks the narrowest kind that holds every cell: Int when all
// cells are integers, Float when all are numbers or missing, else String.
func inferColumn(name string, cells []string) *draws.Column {
	allInt, allNum, anyMissing := true, true, false
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if isMissingCell(c) {
			anyMissing = true
			continue
		}
		if _, err := strconv.Atoi(c); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			allNum = false
			break
		}
	}

	switch {
	case allNum && allInt && !anyMissing && len(cells) > 0:
		ints := make([]int, len(cells))
		for i, c := range cells {
			ints[i], _ = strconv.Atoi(strings.TrimSpace(c))
		}
		return draws.IntColumn(name, ints)
	case allNum:
		floats := make([]float64, len(cells))
		for i, c := range cells {
			f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				f = math.NaN()
			}
			floats[i] = f
		}
		return draws.FloatColumn(name, floats)
	default:
		return draws.StringColumn(name, append([]string(nil), cells...))
	}
}

// ReadCSV reads a table with a header row. Column kinds are inferred.
func ReadCSV(r io.Reader) (*draws.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return draws.MustNew(), nil
	}
	if err != nil {
		return nil, &errors.ParseError{Format: "CSV", Message: err.Error(), Err: err}
	}

	cells := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errors.ParseError{Format: "CSV", Message: err.Error(), Err: err}
		}
		for i, v := range rec {
			cells[i] = append(cells[i], v)
		}
	}

	cols := make([]*draws.Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(strings.TrimSpace(name), cells[i])
	}
	t, err := draws.New(cols...)
	if err != nil {
		return nil, &errors.ParseError{Format: "CSV", Message: err.Error(), Err: err}
	}
	return t, nil
}

// WriteCSV writes t with a header row. Missing values are written as NA.
func WriteCSV(w io.Writer, t *draws.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return errors.NewIO("write", "", err)
	}
	cols := t.Columns()
	rec := make([]string, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for i, c := range cols {
			rec[i] = c.Key(r)
		}
		if err := cw.Write(rec); err != nil {
			return errors.NewIO("write", "", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}
