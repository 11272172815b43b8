package drawio

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// jsonTable is the column-oriented JSON layout:
//
//	{"columns": [{"name": ".draw", "kind": "int", "values": [1, 2]}, ...]}
//
// Missing float values are null; infinities are the strings "+Inf" and "-Inf".
type jsonTable struct {
	Columns []jsonColumn `json:"columns"`
}

type jsonColumn struct {
	Name   string          `json:"name"`
	Kind   string          `json:"kind"`
	Values json.RawMessage `json:"values"`
}

// WriteJSON writes t in the column-oriented JSON layout.
func WriteJSON(w io.Writer, t *draws.Table) error {
	doc := jsonTable{Columns: make([]jsonColumn, 0, t.NumCols())}
	for _, c := range t.Columns() {
		var values any
		switch c.Kind() {
		case draws.Int:
			values = c.Ints()
		case draws.Float:
			cells := make([]any, c.Len())
			for i, f := range c.Floats() {
				switch {
				case math.IsNaN(f):
				case math.IsInf(f, 0):
					cells[i] = draws.FormatFloat(f)
				default:
					cells[i] = f
				}
			}
			values = cells
		default:
			values = c.Strings()
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("failed to encode column %s: %w", c.Name(), err)
		}
		doc.Columns = append(doc.Columns, jsonColumn{Name: c.Name(), Kind: c.Kind().String(), Values: raw})
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}

// ReadJSON reads a table written by WriteJSON.
func ReadJSON(r io.Reader) (*draws.Table, error) {
	var doc jsonTable
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Message: err.Error(), Err: err}
	}

	cols := make([]*draws.Column, 0, len(doc.Columns))
	for _, jc := range doc.Columns {
		kind, ok := draws.ParseKind(jc.Kind)
		if !ok {
			return nil, &errors.ParseError{Format: "JSON", Message: fmt.Sprintf("column %q has unknown kind %q", jc.Name, jc.Kind)}
		}
		col, err := decodeColumn(jc, kind)
		if err != nil {
			return nil, &errors.ParseError{Format: "JSON", Message: fmt.Sprintf("column %q: %v", jc.Name, err), Err: err}
		}
		cols = append(cols, col)
	}
	t, err := draws.New(cols...)
	if err != nil {
		return nil, &errors.ParseError{Format: "JSON", Message: err.Error(), Err: err}
	}
	return t, nil
}

func decodeColumn(jc jsonColumn, kind draws.Kind) (*draws.Column, error) {
	switch kind {
	case draws.Int:
		var v []int
		if err := json.Unmarshal(jc.Values, &v); err != nil {
			return nil, err
		}
		return draws.IntColumn(jc.Name, v), nil
	case draws.Float:
		var v []any
		if err := json.Unmarshal(jc.Values, &v); err != nil {
			return nil, err
		}
		floats := make([]float64, len(v))
		for i, cell := range v {
			switch x := cell.(type) {
			case nil:
				floats[i] = math.NaN()
			case float64:
				floats[i] = x
			case string:
				f, err := strconv.ParseFloat(x, 64)
				if err != nil || !math.IsInf(f, 0) {
					return nil, fmt.Errorf("cell %d: %q is not a number", i, x)
				}
				floats[i] = f
			default:
				return nil, fmt.Errorf("cell %d: unexpected %T", i, cell)
			}
		}
		return draws.FloatColumn(jc.Name, floats), nil
	default:
		var v []string
		if err := json.Unmarshal(jc.Values, &v); err != nil {
			return nil, err
		}
		return draws.StringColumn(jc.Name, v), nil
	}
}
