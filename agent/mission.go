package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hairizuan-noorazman/webtester/config"
)

const maxFocusLength = 2000

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// BuildMission constructs the natural-language task handed to the browser
// agent. The mission instructs the agent to test in batches, grouping related
// elements into single test cases instead of one invocation per element.
// User-supplied text is sanitized and fenced with tags so it cannot break
// out of its section of the prompt.
func BuildMission(cfg config.TestConfig) string {
	categories := make([]string, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		categories = append(categories, cat.DisplayName())
	}

	focus := sanitizeText(cfg.TestFocus)
	if focus == "" {
		focus = "Perform a general test of the website."
	}

	var b strings.Builder
	b.WriteString("You are a senior QA tester. Your goal is to test the website below and report your findings.\n\n")
	fmt.Fprintf(&b, "<target_url>%s</target_url>\n", cfg.TargetURL)
	fmt.Fprintf(&b, "<test_focus>%s</test_focus>\n", focus)
	fmt.Fprintf(&b, "<test_categories>%s</test_categories>\n\n", strings.Join(categories, ", "))

	b.WriteString(`Rules to follow:
- Test in batches: group related elements (all navigation links, all form fields, all content blocks) into single test cases instead of testing one element at a time.
- Do not get stuck in a loop. If an action repeats without progress, move on to a different part of the page.
- Your test should not exceed 8 steps.
- Record every bug, usability issue, or unexpected behavior you find.

Report your findings as a JSON object with this shape:
{
  "test_cases": [{"test_id": "...", "title": "...", "status": "PASSED|FAILED|SKIPPED", "execution_time": 0.0}],
  "bug_reports": [{"bug_id": "...", "title": "...", "severity": "LOW|MEDIUM|HIGH|CRITICAL", "category": "..."}],
  "coverage": {"<category name>": 0.0},
  "summary": "..."
}
Return only the JSON object, without markdown formatting or explanatory text.`)

	return b.String()
}

// sanitizeText strips markup and control characters from user-provided text
// before it is embedded in the mission, and caps its length.
func sanitizeText(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	s = controlChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > maxFocusLength {
		s = s[:maxFocusLength]
	}
	return s
}
