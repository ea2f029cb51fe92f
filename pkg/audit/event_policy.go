package audit

import "fmt"

// PolicyEvent records a policy creation attempt.
type PolicyEvent struct {
	Name           string
	PolicyID       string
	SearchID       string
	PolicySeverity string
	CloudType      string
	// Duplicate is set when the API already held a policy with this name.
	Duplicate    bool
	Success      bool
	ErrorMessage string
}

func (e PolicyEvent) MessageID() string {
	return "policy"
}

func (e PolicyEvent) Message() string {
	switch {
	case e.Success:
		return fmt.Sprintf("created policy %q (%s) on saved search %s", e.Name, e.PolicyID, e.SearchID)
	case e.Duplicate:
		return fmt.Sprintf("skipped policy %q: name already exists", e.Name)
	}
	msg := fmt.Sprintf("failed to create policy %q", e.Name)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PolicyEvent) Severity() Severity {
	switch {
	case e.Success:
		return SeverityInfo
	case e.Duplicate:
		return SeverityNotice
	}
	return SeverityWarning
}

func (e PolicyEvent) Facility() int {
	return FacilityUser
}

func (e PolicyEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDPolicy: {
			"name":   e.Name,
			"search": e.SearchID,
		},
		SDIDAction: {
			"operation": "create-policy",
			"result":    result(e.Success),
		},
	}
	if e.PolicyID != "" {
		sd[SDIDPolicy]["id"] = e.PolicyID
	}
	if e.PolicySeverity != "" {
		sd[SDIDPolicy]["severity"] = e.PolicySeverity
	}
	if e.CloudType != "" {
		sd[SDIDPolicy]["cloud"] = e.CloudType
	}
	if e.Duplicate {
		sd[SDIDAction]["result"] = "duplicate"
	}
	return sd
}
