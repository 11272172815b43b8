package drawio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/internal/validation"
)

// StanOptions numbers the draws of one CmdStan output file.
type StanOptions struct {
	// Chain is the .chain value. Zero means 1.
	Chain int
	// DrawOffset is added to the 1-based iteration to give .draw.
	DrawOffset int
}

// StanName converts a CmdStan column name to the draws form: "b.1.2"
// becomes "b[1,2]". Names without an all-integer dotted suffix are kept.
func StanName(name string) string {
	base, rest, ok := strings.Cut(name, ".")
	if !ok || base == "" {
		return name
	}
	parts := strings.Split(rest, ".")
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return name
		}
	}
	return base + "[" + strings.Join(parts, ",") + "]"
}

// ReadStanCSV reads one CmdStan output file. Comment lines are skipped,
// column names are converted with StanName, and identity columns are added.
func ReadStanCSV(r io.Reader, opts StanOptions) (*draws.Table, error) {
	chain := opts.Chain
	if chain == 0 {
		chain = 1
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	header, err := cr.Read()
	if err == io.EOF {
		return nil, &errors.ParseError{Format: "CmdStan CSV", Message: "no header row"}
	}
	if err != nil {
		return nil, &errors.ParseError{Format: "CmdStan CSV", Message: err.Error(), Err: err}
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = StanName(strings.TrimSpace(h))
		if draws.IsReserved(names[i]) {
			return nil, &errors.ParseError{Format: "CmdStan CSV", Message: fmt.Sprintf("column %q is reserved", names[i])}
		}
	}

	values := make([][]float64, len(header))
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errors.ParseError{Format: "CmdStan CSV", Message: err.Error(), Err: err}
		}
		line++
		for i, cell := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &errors.ParseError{
					Format:  "CmdStan CSV",
					Message: fmt.Sprintf("draw %d, column %s: %q is not a number", line-1, header[i], cell),
				}
			}
			values[i] = append(values[i], f)
		}
	}

	n := line - 1
	chains := make([]int, n)
	iters := make([]int, n)
	drawIDs := make([]int, n)
	for i := 0; i < n; i++ {
		chains[i] = chain
		iters[i] = i + 1
		drawIDs[i] = opts.DrawOffset + i + 1
	}
	cols := []*draws.Column{
		draws.IntColumn(draws.ChainColumn, chains),
		draws.IntColumn(draws.IterationColumn, iters),
		draws.IntColumn(draws.DrawColumn, drawIDs),
	}
	for i, name := range names {
		cols = append(cols, draws.FloatColumn(name, values[i]))
	}
	t, err := draws.New(cols...)
	if err != nil {
		return nil, &errors.ParseError{Format: "CmdStan CSV", Message: err.Error(), Err: err}
	}
	return t, nil
}

// ReadChains reads one CmdStan output file per chain, numbering chains from
// 1 in order and draws consecutively across chains.
func ReadChains(paths []string) (*draws.Table, error) {
	if len(paths) == 0 {
		return nil, errors.NewValidation("paths", "at least one CmdStan output file is required")
	}
	tables := make([]*draws.Table, 0, len(paths))
	offset := 0
	for i, path := range paths {
		t, err := readStanFile(path, StanOptions{Chain: i + 1, DrawOffset: offset})
		if err != nil {
			return nil, err
		}
		offset += t.NumRows()
		tables = append(tables, t)
	}
	return draws.Bind(tables...)
}

func readStanFile(path string, opts StanOptions) (*draws.Table, error) {
	src, err := open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.format != validation.FileTypeStanCSV && src.format != validation.FileTypeCSV {
		return nil, errors.NewUnsupported("chain file", fmt.Sprintf("%s is %s, not CmdStan CSV", path, src.format))
	}
	t, err := ReadStanCSV(src, opts)
	if err != nil {
		return nil, withPath(err, path)
	}
	return t, nil
}
