// Command tidydraws reshapes, compares and summarizes posterior draws from
// CSV, CmdStan CSV and JSON files, and keeps named datasets in a SQLite store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/tidydraws/core/compare"
	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/sqlite"
	"github.com/FocuswithJustin/tidydraws/core/summary"
	"github.com/FocuswithJustin/tidydraws/core/tidy"
	"github.com/FocuswithJustin/tidydraws/internal/drawio"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
	"github.com/FocuswithJustin/tidydraws/internal/store"
	"github.com/FocuswithJustin/tidydraws/internal/validation"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Config    kong.ConfigFlag `help:"YAML or JSON configuration file"`
	LogLevel  string          `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"TIDYDRAWS_LOG_LEVEL"`
	LogFormat string          `name:"log-format" help:"Log format (text, json)" default:"text" env:"TIDYDRAWS_LOG_FORMAT"`
	Sep       string          `help:"Regular expression splitting variable indices" default:"[, ]" env:"TIDYDRAWS_SEP"`
	Regex     bool            `help:"Treat variable names in specs as regular expressions" env:"TIDYDRAWS_REGEX"`
	Store     string          `help:"Dataset store path" default:"tidydraws.db" type:"path" env:"TIDYDRAWS_STORE"`
	Chain     int             `help:"Chain number for a single CmdStan input" default:"1"`
	Out       string          `short:"o" help:"Output file (.csv or .json, optionally .gz or .xz); stdout when empty" type:"path"`
	Format    string          `help:"Stdout format" enum:"csv,json" default:"csv" env:"TIDYDRAWS_FORMAT"`

	stdin  io.Reader `kong:"-"`
	stdout io.Writer `kong:"-"`
}

// CLI defines the command-line interface for tidydraws.
type CLI struct {
	Globals

	Spread     SpreadCmd     `cmd:"" help:"Spread variable indices into columns"`
	Gather     GatherCmd     `cmd:"" help:"Gather variables into .variable/.value rows"`
	Unspread   UnspreadCmd   `cmd:"" help:"Rebuild draws columns from spread output"`
	Ungather   UngatherCmd   `cmd:"" help:"Rebuild draws columns from gathered output"`
	Compare    CompareCmd    `cmd:"" help:"Compare a value between levels of a column"`
	Summarize  SummarizeCmd  `cmd:"" help:"Point and interval summaries"`
	Sample     SampleCmd     `cmd:"" help:"Subsample draws"`
	Recover    RecoverCmd    `cmd:"" help:"Replace integer indices with level names"`
	Chains     ChainsCmd     `cmd:"" help:"Combine CmdStan output files, one per chain"`
	Equivalent EquivalentCmd `cmd:"" help:"Check two draws files hold the same rows"`
	Import     ImportCmd     `cmd:"" help:"Save a draws file into the dataset store"`
	Export     ExportCmd     `cmd:"" help:"Write a stored dataset to a file"`
	Datasets   DatasetsGroup `cmd:"" help:"Dataset store operations"`
	Version    VersionCmd    `cmd:"" help:"Print version information"`
}

// DatasetsGroup contains dataset store operations.
type DatasetsGroup struct {
	List   DatasetsListCmd   `cmd:"" default:"1" help:"List stored datasets"`
	Delete DatasetsDeleteCmd `cmd:"" help:"Delete a stored dataset"`
}

func (g *Globals) tidyOptions() tidy.Options {
	opts := tidy.DefaultOptions()
	if g.Sep != "" {
		opts.Sep = g.Sep
	}
	opts.Regex = g.Regex
	return opts
}

func (g *Globals) read(path string) (*draws.Table, error) {
	if path == "-" {
		return drawio.ReadFrom(g.stdin, "stdin."+g.Format, drawio.Options{Chain: g.Chain})
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid input path: %w", err)
	}
	return drawio.Read(path, drawio.Options{Chain: g.Chain})
}

func (g *Globals) write(t *draws.Table) error {
	if g.Out == "" {
		return drawio.Encode(g.stdout, "stdout."+g.Format, t)
	}
	return drawio.Write(g.Out, t)
}

func (g *Globals) openStore() (*store.Store, error) {
	s, err := store.Open(g.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// SpreadCmd runs tidy.SpreadDraws.
type SpreadCmd struct {
	Input string   `arg:"" help:"Draws file, or - for stdin"`
	Specs []string `arg:"" help:"Variable specs, e.g. 'b[i,j]' or 'c(mu, sigma)'"`
}

func (c *SpreadCmd) Run(g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	out, err := tidy.SpreadDraws(t, c.Specs, g.tidyOptions())
	if err != nil {
		return err
	}
	return g.write(out)
}

// GatherCmd runs tidy.GatherDraws.
type GatherCmd struct {
	Input string   `arg:"" help:"Draws file, or - for stdin"`
	Specs []string `arg:"" help:"Variable specs"`
}

func (c *GatherCmd) Run(g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	out, err := tidy.GatherDraws(t, c.Specs, g.tidyOptions())
	if err != nil {
		return err
	}
	return g.write(out)
}

// UnspreadCmd runs tidy.UnspreadDraws.
type UnspreadCmd struct {
	Input       string   `arg:"" help:"Spread draws file, or - for stdin"`
	Specs       []string `arg:"" help:"Variable specs used to spread"`
	DropIndices bool     `name:"drop-indices" help:"Omit .chain, .iteration and .draw from the output"`
}

func (c *UnspreadCmd) Run(g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	opts := g.tidyOptions()
	opts.DropIndices = c.DropIndices
	out, err := tidy.UnspreadDraws(t, c.Specs, opts)
	if err != nil {
		return err
	}
	return g.write(out)
}

// UngatherCmd runs tidy.UngatherDraws.
type UngatherCmd struct {
	Input       string   `arg:"" help:"Gathered draws file, or - for stdin"`
	Specs       []string `arg:"" help:"Variable specs used to gather"`
	DropIndices bool     `name:"drop-indices" help:"Omit .chain, .iteration and .draw from the output"`
}

func (c *UngatherCmd) Run(g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	opts := g.tidyOptions()
	opts.DropIndices = c.DropIndices
	out, err := tidy.UngatherDraws(t, c.Specs, opts)
	if err != nil {
		return err
	}
	return g.write(out)
}

// CompareCmd runs compare.CompareLevels.
type CompareCmd struct {
	Input      string   `arg:"" help:"Tidy draws file, or - for stdin"`
	Value      string   `required:"" help:"Column to compare"`
	By         string   `required:"" help:"Column whose levels are compared"`
	Comparison string   `help:"default, pairwise, ordered, control[=level] or explicit=b:a,..." default:"default"`
	Fun        string   `help:"Combining operator" enum:"-,+,*,/" default:"-"`
	Levels     []string `help:"Level order"`
	Ordered    bool     `help:"Treat levels as ordered"`
	GroupBy    []string `name:"group-by" help:"Columns to match rows on besides draw identity"`
}

var operators = map[string]func(a, b float64) float64{
	"-": func(a, b float64) float64 { return a - b },
	"+": func(a, b float64) float64 { return a + b },
	"*": func(a, b float64) float64 { return a * b },
	"/": func(a, b float64) float64 { return a / b },
}

func (c *CompareCmd) Run(g *Globals) error {
	cmp, err := compare.Parse(c.Comparison)
	if err != nil {
		return err
	}
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	opts := compare.DefaultOptions()
	opts.Fun = operators[c.Fun]
	opts.FunLabel = c.Fun
	opts.Levels = c.Levels
	opts.Ordered = c.Ordered
	opts.GroupBy = c.GroupBy
	out, err := compare.CompareLevels(t, c.Value, c.By, cmp, opts)
	if err != nil {
		return err
	}
	return g.write(out)
}

// SummarizeCmd runs summary.PointInterval.
type SummarizeCmd struct {
	Input    string    `arg:"" help:"Tidy draws file, or - for stdin"`
	Values   []string  `help:"Columns to summarize; all float columns when empty"`
	GroupBy  []string  `name:"group-by" help:"Columns to summarize within"`
	Point    string    `help:"Point summary (mean, median, mode)" default:"median"`
	Interval string    `help:"Interval (qi, hdci)" default:"qi"`
	Width    []float64 `help:"Interval masses" default:"0.95"`
}

func (c *SummarizeCmd) Run(g *Globals) error {
	point, err := summary.ParsePoint(c.Point)
	if err != nil {
		return err
	}
	interval, err := summary.ParseInterval(c.Interval)
	if err != nil {
		return err
	}
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	out, err := summary.PointInterval(t, c.Values, summary.Options{
		GroupBy:  c.GroupBy,
		Point:    point,
		Interval: interval,
		Widths:   c.Width,
	})
	if err != nil {
		return err
	}
	return g.write(out)
}

// SampleCmd runs tidy.SampleDraws.
type SampleCmd struct {
	Input string `arg:"" help:"Draws file, or - for stdin"`
	N     int    `short:"n" required:"" help:"Number of draws to keep"`
	Seed  uint64 `help:"Random seed" default:"1"`
}

func (c *SampleCmd) Run(g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	out, err := tidy.SampleDraws(t, c.N, c.Seed)
	if err != nil {
		return err
	}
	return g.write(out)
}

// RecoverCmd runs tidy.RecoverLevels.
type RecoverCmd struct {
	Input  string   `arg:"" help:"Spread draws file, or - for stdin"`
	Levels []string `required:"" sep:"none" help:"Level names per index column, e.g. --levels school=A,B,C"`
}

func (c *RecoverCmd) Run(g *Globals) error {
	levels, err := parseLevels(c.Levels)
	if err != nil {
		return err
	}
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	out, err := tidy.RecoverLevels(t, levels)
	if err != nil {
		return err
	}
	return g.write(out)
}

func parseLevels(items []string) (map[string][]string, error) {
	levels := make(map[string][]string, len(items))
	for _, item := range items {
		name, list, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || list == "" {
			return nil, fmt.Errorf("invalid --levels %q: want <column>=<a>,<b>,...", item)
		}
		for _, l := range strings.Split(list, ",") {
			levels[name] = append(levels[name], strings.TrimSpace(l))
		}
	}
	return levels, nil
}

// ChainsCmd runs drawio.ReadChains.
type ChainsCmd struct {
	Files []string `arg:"" help:"CmdStan output files in chain order" type:"existingfile"`
}

func (c *ChainsCmd) Run(g *Globals) error {
	t, err := drawio.ReadChains(c.Files)
	if err != nil {
		return err
	}
	return g.write(t)
}

// EquivalentCmd compares two draws files ignoring row and column order.
type EquivalentCmd struct {
	A string `arg:"" help:"First draws file"`
	B string `arg:"" help:"Second draws file"`
}

func (c *EquivalentCmd) Run(g *Globals) error {
	a, err := g.read(c.A)
	if err != nil {
		return err
	}
	b, err := g.read(c.B)
	if err != nil {
		return err
	}
	if !draws.Equivalent(a, b) {
		return fmt.Errorf("%s and %s differ (fingerprints %s, %s)", c.A, c.B, a.Fingerprint(), b.Fingerprint())
	}
	fmt.Fprintf(g.stdout, "equivalent: %s\n", a.Fingerprint())
	return nil
}

// ImportCmd saves a draws file into the store.
type ImportCmd struct {
	Input string `arg:"" help:"Draws file, or - for stdin"`
	Name  string `help:"Dataset name; defaults to the file name"`
}

func (c *ImportCmd) Run(ctx context.Context, g *Globals) error {
	t, err := g.read(c.Input)
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = validation.InnerName(filepath.Base(c.Input))
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	s, err := g.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ds, err := s.Save(logging.WithDataset(ctx, name), name, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "Imported: %s\n", c.Input)
	fmt.Fprintf(g.stdout, "  Dataset ID: %s\n", ds.ID)
	fmt.Fprintf(g.stdout, "  Name: %s\n", ds.Name)
	fmt.Fprintf(g.stdout, "  Rows: %d, Columns: %d\n", ds.Rows, ds.Cols)
	fmt.Fprintf(g.stdout, "  BLAKE3: %s\n", ds.Fingerprint)
	return nil
}

// ExportCmd writes a stored dataset to a file in a directory.
type ExportCmd struct {
	Dataset string `arg:"" help:"Dataset id or name"`
	Dir     string `help:"Output directory" default:"." type:"path"`
	As      string `help:"Output file name; defaults to <name>.csv"`
}

func (c *ExportCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ds, err := s.Resolve(ctx, c.Dataset)
	if err != nil {
		return err
	}
	t, err := s.Load(logging.WithDataset(ctx, ds.Name), ds.ID)
	if err != nil {
		return err
	}

	name := c.As
	if name == "" {
		name = ds.Name + ".csv"
	}
	name, err = validation.SanitizeFilename(name)
	if err != nil {
		return fmt.Errorf("invalid output name: %w", err)
	}
	if !validation.IsPathSafe(c.Dir, name) {
		return fmt.Errorf("invalid output path: %s escapes %s", name, c.Dir)
	}
	path := filepath.Join(c.Dir, name)
	if err := drawio.Write(path, t); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "Exported: %s -> %s\n", ds.ID, path)
	return nil
}

// DatasetsListCmd lists stored datasets.
type DatasetsListCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *DatasetsListCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(g.stdout, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(g.stdout, "No datasets.")
		return nil
	}
	fmt.Fprintf(g.stdout, "%-36s %-20s %8s %6s  %s\n", "ID", "NAME", "ROWS", "COLS", "CREATED")
	fmt.Fprintf(g.stdout, "%-36s %-20s %8s %6s  %s\n", "--", "----", "----", "----", "-------")
	for _, ds := range list {
		fmt.Fprintf(g.stdout, "%-36s %-20s %8d %6d  %s\n", ds.ID, ds.Name, ds.Rows, ds.Cols, ds.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// DatasetsDeleteCmd deletes a stored dataset.
type DatasetsDeleteCmd struct {
	Dataset string `arg:"" help:"Dataset id or name"`
}

func (c *DatasetsDeleteCmd) Run(ctx context.Context, g *Globals) error {
	s, err := g.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Delete(ctx, c.Dataset); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout, "Deleted: %s\n", c.Dataset)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(g.stdout, "tidydraws version %s\n", version)
	fmt.Fprintf(g.stdout, "  sqlite driver: %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}

// AfterApply configures logging once flags, env and config are resolved.
func (g *Globals) AfterApply() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func newParser(cli *CLI, stdin io.Reader, stdout io.Writer, options ...kong.Option) (*kong.Kong, error) {
	cli.stdin = stdin
	cli.stdout = stdout
	options = append([]kong.Option{
		kong.Name("tidydraws"),
		kong.Description("Tidy posterior draws: spread, gather, compare and summarize"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Configuration(yamlConfig, configPaths...),
		kong.Bind(&cli.Globals),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, stdin, stdout, kong.Writers(stdout, os.Stderr))
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdin, os.Stdout)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
