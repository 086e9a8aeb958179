package results

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hairizuan-noorazman/webtester/config"
)

// Normalize maps whatever the agent returned into a fixed Report shape.
// The agent's output is text of unspecified reliability: a well-formed JSON
// document round-trips unchanged, anything else degrades to best-effort
// extraction. Normalize never fails; a completely unusable payload yields an
// empty report with zero coverage for every enabled category.
func Normalize(raw string, categories []config.Category) *Report {
	report := &Report{
		TestCases:  []TestCase{},
		BugReports: []BugReport{},
		Coverage:   Coverage{},
	}

	body := stripCodeFences(raw)

	var decoded rawReport
	if err := json.Unmarshal([]byte(body), &decoded); err == nil {
		fillFromJSON(report, &decoded)
	} else {
		// Not JSON at all: fall back to the markdown report format the
		// agent tends to produce when asked for bug reports.
		report.BugReports = parseMarkdownBugReports(body)
		report.Summary = extractSummary(body)
	}

	assignMissingIDs(report)
	zeroFillCoverage(report, categories)
	return report
}

// rawReport mirrors the expected agent output with loose field types so a
// sloppy payload (numbers as strings, lowercase statuses) still decodes.
type rawReport struct {
	TestCases []struct {
		TestID        string          `json:"test_id"`
		Title         string          `json:"title"`
		Description   string          `json:"description"`
		Status        string          `json:"status"`
		ExecutionTime json.RawMessage `json:"execution_time"`
		Steps         []struct {
			StepNumber     json.RawMessage `json:"step_number"`
			Action         string          `json:"action"`
			ExpectedResult string          `json:"expected_result"`
			Status         string          `json:"status"`
		} `json:"test_steps"`
	} `json:"test_cases"`
	BugReports []struct {
		BugID            string   `json:"bug_id"`
		Title            string   `json:"title"`
		Description      string   `json:"description"`
		Severity         string   `json:"severity"`
		Category         string   `json:"category"`
		StepsToReproduce []string `json:"steps_to_reproduce"`
		ExpectedBehavior string   `json:"expected_behavior"`
		ActualBehavior   string   `json:"actual_behavior"`
	} `json:"bug_reports"`
	Coverage        map[string]json.RawMessage `json:"coverage"`
	Recommendations []string                   `json:"recommendations"`
	Summary         string                     `json:"summary"`
}

func fillFromJSON(report *Report, decoded *rawReport) {
	for _, tc := range decoded.TestCases {
		out := TestCase{
			TestID:        tc.TestID,
			Title:         tc.Title,
			Description:   tc.Description,
			Status:        normalizeCaseStatus(tc.Status),
			ExecutionTime: coerceFloat(tc.ExecutionTime),
		}
		for _, step := range tc.Steps {
			out.Steps = append(out.Steps, TestStep{
				StepNumber:     int(coerceFloat(step.StepNumber)),
				Action:         step.Action,
				ExpectedResult: step.ExpectedResult,
				Status:         normalizeCaseStatus(step.Status),
			})
		}
		report.TestCases = append(report.TestCases, out)
	}

	for _, br := range decoded.BugReports {
		report.BugReports = append(report.BugReports, BugReport{
			BugID:            br.BugID,
			Title:            br.Title,
			Description:      br.Description,
			Severity:         normalizeSeverity(br.Severity),
			Category:         br.Category,
			StepsToReproduce: br.StepsToReproduce,
			ExpectedBehavior: br.ExpectedBehavior,
			ActualBehavior:   br.ActualBehavior,
		})
	}

	for name, v := range decoded.Coverage {
		pct := coerceFloat(v)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		report.Coverage[name] = pct
	}

	report.Recommendations = decoded.Recommendations
	report.Summary = decoded.Summary
}

// stripCodeFences removes a surrounding markdown code fence. LLMs wrap JSON
// in ```json blocks no matter how firmly the prompt forbids it.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		// The fence may also appear mid-document after prose.
		if start := strings.Index(s, "```json"); start != -1 {
			rest := s[start+len("```json"):]
			if end := strings.Index(rest, "```"); end != -1 {
				return strings.TrimSpace(rest[:end])
			}
		}
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func coerceFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

func assignMissingIDs(report *Report) {
	for i := range report.TestCases {
		if report.TestCases[i].TestID == "" {
			report.TestCases[i].TestID = fmt.Sprintf("TC_%03d", i+1)
		}
	}
	for i := range report.BugReports {
		if report.BugReports[i].BugID == "" {
			report.BugReports[i].BugID = fmt.Sprintf("BUG_%d", i+1)
		}
	}
}

// zeroFillCoverage reports 0 for every enabled category the agent did not
// mention, so the dashboard always renders a complete coverage table.
func zeroFillCoverage(report *Report, categories []config.Category) {
	for _, cat := range categories {
		if _, ok := report.Coverage[cat.DisplayName()]; !ok {
			report.Coverage[cat.DisplayName()] = 0
		}
	}
}

// extractSummary pulls a trailing free-text summary out of a non-JSON
// payload. The whole text is the summary when no heading is found.
func extractSummary(body string) string {
	lower := strings.ToLower(body)
	for _, marker := range []string{"## summary", "**summary:**", "summary:"} {
		if idx := strings.LastIndex(lower, marker); idx != -1 {
			return strings.TrimSpace(body[idx+len(marker):])
		}
	}
	return strings.TrimSpace(body)
}
