// Package report prints a human-readable run report to the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/aristath/fundsim/internal/domain"
)

// SampleSize is the number of leading records shown by default.
const SampleSize = 10

// Report is everything the console report shows for one run.
type Report struct {
	Title       string
	Currency    string
	RunID       string
	Elapsed     time.Duration
	Overall     domain.StatisticsReport
	Segments    []domain.SegmentReport
	Percentiles []domain.Percentile
	Sample      []domain.InvestorRecord
}

// Options controls terminal rendering.
type Options struct {
	Style string // glamour style name, "auto", or "" for raw markdown
	Width int
}

// Render writes rep to w.
func Render(w io.Writer, rep Report, opts Options) error {
	return RenderMarkdown(w, Markdown(rep), opts)
}

// RenderMarkdown writes md to w, styled for the terminal unless opts.Style
// is empty.
func RenderMarkdown(w io.Writer, md string, opts Options) error {
	if opts.Style == "" {
		_, err := io.WriteString(w, md)
		return err
	}

	styleOpt := glamour.WithStandardStyle(opts.Style)
	if opts.Style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	width := opts.Width
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown formats rep as a markdown document.
func Markdown(rep Report) string {
	f := formatter{currency: rep.Currency}
	var b strings.Builder

	title := "Fund holdings simulation"
	if rep.Title != "" {
		title += ": " + rep.Title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if rep.RunID != "" {
		fmt.Fprintf(&b, "Run `%s` generated %s investors in %s.\n\n",
			rep.RunID, humanize.Comma(int64(rep.Overall.Count)), rep.Elapsed.Round(time.Millisecond))
	}

	b.WriteString("## General statistics\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Investors | %s |\n", humanize.Comma(int64(rep.Overall.Count)))
	for _, row := range statisticRows(rep.Overall, f) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}

	if len(rep.Segments) > 0 {
		b.WriteString("\n## Segments\n\n")
		b.WriteString("| Segment | Investors | Mean | Median | Std. deviation | Minimum | Maximum | Total |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, seg := range rep.Segments {
			r := seg.Report
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				seg.Label, humanize.Comma(int64(r.Count)),
				f.amount(r.Mean), f.amount(r.Median), f.amount(r.StdDev),
				f.amount(r.Min), f.amount(r.Max), f.amount(r.Sum))
		}
	}

	if len(rep.Percentiles) > 0 {
		b.WriteString("\n## Percentiles\n\n")
		b.WriteString("| Percentile | Holding |\n|---:|---:|\n")
		for _, p := range rep.Percentiles {
			fmt.Fprintf(&b, "| %s | %s |\n", humanize.Ordinal(int(math.Round(p.P))), f.amount(p.Value))
		}
	}

	if len(rep.Sample) > 0 {
		fmt.Fprintf(&b, "\n## First %d investors\n\n", len(rep.Sample))
		b.WriteString("| Investor | Segment | Holding |\n|---:|---|---:|\n")
		for _, r := range rep.Sample {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", r.ID, r.Segment, f.amount(r.Holding))
		}
	}

	return b.String()
}

func statisticRows(r domain.StatisticsReport, f formatter) [][2]string {
	return [][2]string{
		{"Mean", f.amount(r.Mean)},
		{"Median", f.amount(r.Median)},
		{"Std. deviation", f.amount(r.StdDev)},
		{"Variance", f.number(r.Variance)},
		{"Minimum", f.amount(r.Min)},
		{"Maximum", f.amount(r.Max)},
		{"Total holdings", f.amount(r.Sum)},
	}
}

type formatter struct {
	currency string
}

// amount formats v in the report currency, or as a plain number when the
// currency is unknown.
func (f formatter) amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	cur := money.GetCurrency(f.currency)
	if cur == nil {
		return f.number(v)
	}
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

func (f formatter) number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return humanize.CommafWithDigits(v, 2)
}
