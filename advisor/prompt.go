package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hairizuan-noorazman/webtester/results"
)

const maxRecommendations = 5

// BuildPrompt constructs the prompt asking the model for testing
// recommendations based on a finished run's report. Only aggregate numbers
// and titles go into the prompt; raw agent output never does.
func BuildPrompt(report *results.Report) string {
	var b strings.Builder

	b.WriteString("You are a QA lead reviewing the results of an automated test run against a website.\n\n")

	passed, failed, skipped := 0, 0, 0
	for _, tc := range report.TestCases {
		switch tc.Status {
		case results.CasePassed:
			passed++
		case results.CaseFailed:
			failed++
		case results.CaseSkipped:
			skipped++
		}
	}
	fmt.Fprintf(&b, "Test cases: %d passed, %d failed, %d skipped.\n", passed, failed, skipped)

	if len(report.BugReports) > 0 {
		b.WriteString("Bugs found:\n")
		for _, bug := range report.BugReports {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", bug.Severity, bug.Title, bug.Category)
		}
	} else {
		b.WriteString("No bugs were reported.\n")
	}

	if len(report.Coverage) > 0 {
		b.WriteString("Coverage by category:\n")
		names := make([]string, 0, len(report.Coverage))
		for name := range report.Coverage {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", name, report.Coverage[name])
		}
	}

	fmt.Fprintf(&b, `
Based on these results, suggest at most %d concrete next steps for the team:
where to deepen coverage, which bugs to prioritize, and what to re-test.
Return one recommendation per line, prefixed with "- ". Return only the
list, without headings or explanatory text.`, maxRecommendations)

	return b.String()
}

// parseRecommendations splits the model's reply into individual items.
func parseRecommendations(text string) []string {
	recs := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line == "" {
			continue
		}
		recs = append(recs, line)
		if len(recs) == maxRecommendations {
			break
		}
	}
	return recs
}
