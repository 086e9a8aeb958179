package results

import (
	"regexp"
	"strings"
)

// bugReportPattern matches the markdown bug-report block the agent is asked
// to produce for each failed check:
//
//	## Bug Report
//
//	**Bug Summary:** ...
//
//	**Description:** ...
//
//	**Steps to Reproduce:**
//	1. ...
//
//	**Expected Result:** ...
//
//	**Actual Result:** ...
var bugReportPattern = regexp.MustCompile(
	`(?s)## Bug Report\s*\n+\*\*Bug Summary:\*\* (.*?)\n+\*\*Description:\*\* (.*?)\n+\*\*Steps to Reproduce:\*\*\n(.*?)\n+\*\*Expected Result:\*\* (.*?)\n+\*\*Actual Result:\*\* (.*?)(?:\n|$)`,
)

// parseMarkdownBugReports extracts bug reports from a free-form markdown
// payload. Blocks that don't match the expected shape are silently skipped.
func parseMarkdownBugReports(body string) []BugReport {
	reports := []BugReport{}

	for _, match := range bugReportPattern.FindAllStringSubmatch(body, -1) {
		reports = append(reports, BugReport{
			Title:            strings.TrimSpace(match[1]),
			Description:      strings.TrimSpace(match[2]),
			Severity:         SeverityMedium,
			Category:         "Functional",
			StepsToReproduce: parseSteps(match[3]),
			ExpectedBehavior: strings.TrimSpace(match[4]),
			ActualBehavior:   strings.TrimSpace(match[5]),
		})
	}

	return reports
}

// parseSteps splits a numbered markdown list into bare step strings.
func parseSteps(raw string) []string {
	steps := []string{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		step := strings.TrimLeft(strings.TrimSpace(line), "0123456789.-) ")
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
