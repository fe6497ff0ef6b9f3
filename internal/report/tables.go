package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aristath/fundsim/internal/domain"
	"github.com/aristath/fundsim/internal/modules/runs"
	"github.com/aristath/fundsim/internal/publish"
)

// ParamRow is one segment with its derived lognormal parameters.
type ParamRow struct {
	Segment domain.Segment
	Params  domain.LognormalParams
}

// ParamsMarkdown lists segment inputs next to the derived (mu, sigma) and
// the moments those parameters imply.
func ParamsMarkdown(title, currency string, rows []ParamRow) string {
	f := formatter{currency: currency}
	var b strings.Builder

	fmt.Fprintf(&b, "# Lognormal parameters: %s\n\n", title)
	b.WriteString("| Segment | Investors | Seed | Mean | Variance | mu | sigma | Implied mean | Implied variance |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %.6f | %.6f | %s | %s |\n",
			r.Segment.Label,
			humanize.Comma(int64(r.Segment.Population)),
			r.Segment.Seed,
			f.amount(r.Segment.Mean),
			f.number(r.Segment.Variance),
			r.Params.Mu,
			r.Params.Sigma,
			f.amount(r.Params.ImpliedMean()),
			f.number(r.Params.ImpliedVariance()))
	}
	return b.String()
}

// RunsMarkdown lists stored runs, newest first.
func RunsMarkdown(list []runs.Run) string {
	var b strings.Builder
	b.WriteString("# Stored runs\n\n")
	if len(list) == 0 {
		b.WriteString("No runs stored yet.\n")
		return b.String()
	}

	f := formatter{}
	b.WriteString("| Run | Scenario | Started | Duration | Investors | Mean | Median |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|\n")
	for _, r := range list {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			r.Meta.ID,
			r.Meta.Scenario,
			r.Meta.StartedAt.Format(time.RFC3339),
			r.Meta.FinishedAt.Sub(r.Meta.StartedAt).Round(time.Millisecond),
			humanize.Comma(int64(r.Overall.Count)),
			f.number(r.Overall.Mean),
			f.number(r.Overall.Median))
	}
	return b.String()
}

// PublishedMarkdown lists runs found in the bucket.
func PublishedMarkdown(list []publish.PublishedRun, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Published runs\n\n")
	if len(list) == 0 {
		b.WriteString("No runs published yet.\n")
		return b.String()
	}

	b.WriteString("| Run | Published | Manifest |\n|---|---|---|\n")
	for _, r := range list {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.RunID, humanize.RelTime(r.PublishedAt, now, "ago", "from now"), r.ManifestKey)
	}
	return b.String()
}
