package audit

import "fmt"

// AuthenticateEvent records a login attempt.
type AuthenticateEvent struct {
	// AccessKey is the access key id. The secret key is never audited.
	AccessKey    string
	APIURL       string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated against %s", e.AccessKey, e.APIURL)
	}
	msg := fmt.Sprintf("%s failed to authenticate against %s", e.AccessKey, e.APIURL)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.AccessKey,
			"api":  e.APIURL,
		},
		SDIDAction: {
			"operation": "login",
			"result":    result(e.Success),
		},
	}
}
