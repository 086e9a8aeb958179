package results

import "strings"

// CaseStatus is the outcome of a single test case.
type CaseStatus string

const (
	CasePassed  CaseStatus = "PASSED"
	CaseFailed  CaseStatus = "FAILED"
	CaseSkipped CaseStatus = "SKIPPED"
)

// IsValid checks if the case status is one of the known outcomes.
func (s CaseStatus) IsValid() bool {
	switch s {
	case CasePassed, CaseFailed, CaseSkipped:
		return true
	default:
		return false
	}
}

// Severity classifies how bad a reported bug is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// TestStep is one step inside a batch test case.
type TestStep struct {
	StepNumber     int        `json:"step_number"`
	Action         string     `json:"action"`
	ExpectedResult string     `json:"expected_result"`
	Status         CaseStatus `json:"status"`
}

// TestCase is a single executed test case as reported by the agent.
type TestCase struct {
	TestID        string     `json:"test_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        CaseStatus `json:"status"`
	ExecutionTime float64    `json:"execution_time"`
	Steps         []TestStep `json:"test_steps,omitempty"`
}

// BugReport is a defect the agent found during a run.
type BugReport struct {
	BugID            string   `json:"bug_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Severity         Severity `json:"severity"`
	Category         string   `json:"category"`
	StepsToReproduce []string `json:"steps_to_reproduce,omitempty"`
	ExpectedBehavior string   `json:"expected_behavior,omitempty"`
	ActualBehavior   string   `json:"actual_behavior,omitempty"`
}

// Coverage maps a test-category display name to a percentage estimate.
type Coverage map[string]float64

// Report is the normalized result of one run. Once attached to a run it is
// never mutated again.
type Report struct {
	TestCases       []TestCase  `json:"test_cases"`
	BugReports      []BugReport `json:"bug_reports"`
	Coverage        Coverage    `json:"coverage"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Summary         string      `json:"summary,omitempty"`
}

func normalizeCaseStatus(raw string) CaseStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PASSED", "PASS":
		return CasePassed
	case "FAILED", "FAIL", "ERROR":
		return CaseFailed
	case "SKIPPED", "SKIP":
		return CaseSkipped
	default:
		return CaseSkipped
	}
}

func normalizeSeverity(raw string) Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM", "MED":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	case "CRITICAL", "BLOCKER":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
