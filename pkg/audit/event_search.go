package audit

import "fmt"

// SavedSearchEvent records the creation of a saved search.
type SavedSearchEvent struct {
	SearchID     string
	Name         string
	CloudType    string
	Success      bool
	ErrorMessage string
}

func (e SavedSearchEvent) MessageID() string {
	return "saved-search"
}

func (e SavedSearchEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("saved search %s as %q", e.SearchID, e.Name)
	}
	msg := fmt.Sprintf("failed to save search %s as %q", e.SearchID, e.Name)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SavedSearchEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e SavedSearchEvent) Facility() int {
	return FacilityUser
}

func (e SavedSearchEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"search": e.SearchID,
			"name":   e.Name,
			"cloud":  e.CloudType,
		},
		SDIDAction: {
			"operation": "save-search",
			"result":    result(e.Success),
		},
	}
}
