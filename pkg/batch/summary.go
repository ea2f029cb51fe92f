package batch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Exit codes of a run.
const (
	ExitOK       = 0
	ExitFailures = 1
	ExitFatal    = 2
)

// Result is how processing a record ended.
type Result string

const (
	ResultSucceeded Result = "succeeded"
	// ResultSkipped marks a policy whose name already existed.
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
	// ResultValid marks a record that passed validation in a dry run.
	ResultValid Result = "valid"
)

// Outcome is the result of one input record.
type Outcome struct {
	Line       int    `json:"line"`
	PolicyName string `json:"policy_name,omitempty"`
	Result     Result `json:"result"`
	Stage      Stage  `json:"stage"`
	SearchID   string `json:"search_id,omitempty"`
	PolicyID   string `json:"policy_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary holds the counters and outcomes of one run.
type Summary struct {
	RunID     string    `json:"run_id,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Attempted int       `json:"attempted"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	s.Attempted++
	switch o.Result {
	case ResultSucceeded, ResultValid:
		s.Processed++
	case ResultSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// ExitCode is ExitFailures when any record failed, ExitOK otherwise.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return ExitFailures
	}
	return ExitOK
}

// FormatText returns one line per record followed by the counters.
func (s *Summary) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-6s %-40s %-10s %-18s %s\n", "LINE", "POLICY", "RESULT", "STAGE", "DETAIL"))
	for _, o := range s.Outcomes {
		detail := o.Error
		if detail == "" {
			detail = o.PolicyID
		}
		name := o.PolicyName
		if name == "" {
			name = "-"
		}
		sb.WriteString(fmt.Sprintf("%-6d %-40s %-10s %-18s %s\n", o.Line, name, o.Result, o.Stage, detail))
	}
	sb.WriteString("\n")
	if s.DryRun {
		sb.WriteString("Dry run, nothing was sent.\n")
	}
	sb.WriteString(fmt.Sprintf("Attempted: %d  Succeeded: %d  Skipped: %d  Failed: %d\n",
		s.Attempted, s.Processed, s.Skipped, s.Failed))
	return sb.String()
}

// FormatJSON returns the summary as indented JSON.
func (s *Summary) FormatJSON() (string, error) {
	out := *s
	if out.Outcomes == nil {
		out.Outcomes = []Outcome{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
