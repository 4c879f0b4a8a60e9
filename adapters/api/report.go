package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gridworth/domain/stats"
)

// BuildReport renders one run as a markdown document: run header, then one
// section per dataset in name order.
func BuildReport(run *stats.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- **State:** %s\n", run.State)
	fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Finished:** %s\n", run.FinishedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "- **Datasets:** %d (%d failed)\n", len(run.Datasets), run.FailedCount())
	if run.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", run.Error)
	}
	b.WriteString("\n")

	names := make([]string, 0, len(run.Datasets))
	for name := range run.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := run.Datasets[name]
		fmt.Fprintf(&b, "## %s\n\n", name)
		if d.Failed {
			fmt.Fprintf(&b, "Analysis failed: %s\n\n", d.Error)
			continue
		}
		fmt.Fprintf(&b, "| | |\n|---|---|\n")
		fmt.Fprintf(&b, "| Stations | %d |\n", d.StationCount)
		fmt.Fprintf(&b, "| Period | %s to %s |\n",
			d.StartDate.Format("2006-01-02"), d.EndDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "| Rows compared | %d |\n", d.TotalDays)
		fmt.Fprintf(&b, "| Stations with sufficient data | %d |\n", d.StationsAllTiers)
		if d.Annotation != "" {
			fmt.Fprintf(&b, "| Note | %s |\n", d.Annotation)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderReportHTML renders the run report as a standalone HTML fragment.
func RenderReportHTML(run *stats.RunSummary) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(BuildReport(run)))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return markdown.Render(doc, renderer)
}
