package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the summary as a markdown document.
func (s Summary) Markdown(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Session `%s`: %d successful of %d attempts.\n\n", s.SessionID, s.Successes, s.Attempts)

	if len(s.Blocks) == 0 {
		b.WriteString("No attempts recorded.\n")
		return b.String()
	}

	b.WriteString("| Block | Attempts | Successes | Rate | Overshoots | RT mean | RT median | RT p90 | MT mean | MT median | MT p90 |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, blk := range s.Blocks {
		fmt.Fprintf(&b, "| %s | %d | %d | %.0f%% | %d | %.0f | %.0f | %.0f | %.0f | %.0f | %.0f |\n",
			blk.Type, blk.Attempts, blk.Successes, 100*blk.SuccessRate, blk.Overshoots,
			blk.Reaction.Mean, blk.Reaction.Median, blk.Reaction.P90,
			blk.Movement.Mean, blk.Movement.Median, blk.Movement.P90)
	}

	for _, blk := range s.Blocks {
		if len(blk.Failures) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## Failures, %s\n\n", blk.Type)
		reasons := make([]string, 0, len(blk.Failures))
		for r := range blk.Failures {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(&b, "- %s: %d\n", r, blk.Failures[r])
		}
	}
	return b.String()
}

// HTML renders the markdown report as an HTML fragment.
func (s Summary) HTML(title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(s.Markdown(title)), p, renderer)
}
