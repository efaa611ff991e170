package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/extraction"
	"github.com/castlemilk/wealthportal/backend/internal/extraction/eval"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

var commands = []subcommands.Command{
	&extractWorkbookCmd{},
	&extractProfitsCmd{},
	&evalProfitsCmd{},
	&setRoleCmd{},
}

type extractWorkbookCmd struct {
	clientID string
	date     string
}

func (*extractWorkbookCmd) Name() string { return "extract-workbook" }
func (*extractWorkbookCmd) Synopsis() string {
	return "extracts a report draft from a statement workbook"
}
func (*extractWorkbookCmd) Usage() string {
	return `portalctl extract-workbook -client <id> [-date <yyyy-mm-dd>] <file.xlsx|file.xls>

  Reads the Totals and distribution sheets of the workbook and prints the
  report draft as JSON.
`
}

func (c *extractWorkbookCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.clientID, "client", "", "Client the report belongs to (required).")
	f.StringVar(&c.date, "date", "", "Report date; defaults to today.")
}

func (c *extractWorkbookCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.clientID == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	reportDate := time.Now().UTC().Truncate(24 * time.Hour)
	if c.date != "" {
		d, err := time.Parse(api.DateLayout, c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q: %v\n", c.date, err)
			return subcommands.ExitUsageError
		}
		reportDate = d
	}

	filename := f.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	svc := extraction.NewExtractionService(extraction.Config{})
	defer svc.Close()
	draft, err := svc.ExtractWorkbook(ctx, data, filepath.Base(filename), c.clientID, reportDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeJSON(os.Stdout, draft); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type extractProfitsCmd struct {
	asJSON bool
}

func (*extractProfitsCmd) Name() string { return "extract-profits" }
func (*extractProfitsCmd) Synopsis() string {
	return "lists the dividends and profits detected in a statement"
}
func (*extractProfitsCmd) Usage() string {
	return `portalctl extract-profits [-json] <file.pdf|file.txt>

  Extracts the statement text and prints the deduplicated profit items.
`
}

func (c *extractProfitsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table.")
}

func (c *extractProfitsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	filename := f.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	svc := extraction.NewExtractionService(extraction.Config{})
	defer svc.Close()
	items, err := svc.ExtractProfits(ctx, data, filepath.Base(filename))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		err = writeJSON(os.Stdout, items)
	} else {
		err = writeProfitTable(os.Stdout, items)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type evalProfitsCmd struct{}

func (*evalProfitsCmd) Name() string { return "eval-profits" }
func (*evalProfitsCmd) Synopsis() string {
	return "scores the profit extractor against the bundled statement fixtures"
}
func (*evalProfitsCmd) Usage() string {
	return `portalctl eval-profits

  Runs the layered rules and the global dividend fallback over every
  fixture and prints precision, recall and accuracy per strategy.
`
}

func (*evalProfitsCmd) SetFlags(*flag.FlagSet) {}

func (*evalProfitsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fixtures, err := eval.LoadFixtures()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	extractor := extraction.NewTextProfitExtractor(nil)
	strategies := map[string]eval.StrategyFunc{
		"layered": func(_ context.Context, text string) ([]model.ProfitItem, error) {
			return extractor.Extract(text), nil
		},
		"fallback-only": func(_ context.Context, text string) ([]model.ProfitItem, error) {
			return extraction.DedupeProfits(extraction.GlobalDividendRule(textnorm.Normalize(text))), nil
		},
	}
	eval.PrintSummary(os.Stdout, eval.RunEval(ctx, fixtures, strategies))
	return subcommands.ExitSuccess
}

type setRoleCmd struct {
	projectID string
	uid       string
	role      string
}

func (*setRoleCmd) Name() string     { return "set-role" }
func (*setRoleCmd) Synopsis() string { return "grants the admin or client role to a Firebase user" }
func (*setRoleCmd) Usage() string {
	return `portalctl set-role -project <gcp-project> -uid <firebase-uid> -role <admin|client>

  Sets the role custom claim. The user must sign in again to pick it up.
`
}

func (c *setRoleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.projectID, "project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "Firebase project ID.")
	f.StringVar(&c.uid, "uid", "", "Firebase user ID (required).")
	f.StringVar(&c.role, "role", string(model.RoleClient), "Role to grant.")
}

func (c *setRoleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	role := model.Role(c.role)
	if c.uid == "" || (role != model.RoleAdmin && role != model.RoleClient) {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	fa, err := auth.NewFirebaseAuth(ctx, c.projectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := fa.SetRoleClaim(ctx, c.uid, role); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeProfitTable(w io.Writer, items []model.ProfitItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tAMOUNT\tCURRENCY\tSOURCE\tCONFIDENCE")
	for _, it := range items {
		source := it.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%.2f\n", it.Label, it.Amount, it.Currency, source, it.Confidence)
	}
	return tw.Flush()
}
