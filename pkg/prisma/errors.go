package prisma

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthentication is returned when no session token could be obtained,
	// and matches any API call rejected with 401 or 403.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSearchResolution is returned when a query could not be turned into a search handle.
	ErrSearchResolution = errors.New("search resolution failed")
	// ErrSearchPersist is returned when a search handle could not be saved.
	ErrSearchPersist = errors.New("search persist failed")
	// ErrPolicyCreation is returned when the policy endpoint rejects a request.
	ErrPolicyCreation = errors.New("policy creation failed")
	// ErrDuplicatePolicy is a policy creation failure caused by an existing policy
	// with the same name. It wraps ErrPolicyCreation.
	ErrDuplicatePolicy = fmt.Errorf("%w: policy name already exists", ErrPolicyCreation)
)

// StatusHeader carries the API's structured error details.
const StatusHeader = "x-redlock-status"

// Status is one entry of the x-redlock-status header.
type Status struct {
	I18nKey  string `json:"i18nKey"`
	Severity string `json:"severity"`
	Subject  string `json:"subject"`
}

// APIError describes a non-2xx response.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
	Statuses   []Status
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s failed (status %d)", e.Operation, e.StatusCode)
	if len(e.Statuses) > 0 {
		keys := make([]string, 0, len(e.Statuses))
		for _, s := range e.Statuses {
			keys = append(keys, s.I18nKey)
		}
		msg += " [" + strings.Join(keys, ",") + "]"
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is makes a 401 or 403 response match ErrAuthentication.
func (e *APIError) Is(target error) bool {
	if target != ErrAuthentication {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// HasStatus reports whether the response carried the given i18n key.
func (e *APIError) HasStatus(keys ...string) bool {
	for _, s := range e.Statuses {
		for _, k := range keys {
			if s.I18nKey == k {
				return true
			}
		}
	}
	return false
}

func newAPIError(operation string, resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if raw := resp.Header.Get(StatusHeader); raw != "" {
		var statuses []Status
		if err := json.Unmarshal([]byte(raw), &statuses); err == nil {
			apiErr.Statuses = statuses
		}
	}
	return apiErr
}

var duplicatePolicyKeys = []string{"duplicate_policy_name", "policy_name_exists"}

var alreadySavedKeys = []string{"duplicate_search_name", "search_already_saved"}

// isDuplicatePolicy classifies a policy creation failure. The structured status
// header is authoritative; the body substring check only covers backends that
// return no status entries at all.
func isDuplicatePolicy(err *APIError) bool {
	if len(err.Statuses) > 0 {
		return err.HasStatus(duplicatePolicyKeys...)
	}
	return legacyAlreadyExists(err.Body)
}

func isAlreadySaved(err *APIError) bool {
	if len(err.Statuses) > 0 {
		return err.HasStatus(alreadySavedKeys...)
	}
	return legacyAlreadyExists(err.Body)
}

// legacyAlreadyExists is the compatibility shim for unstructured error bodies.
func legacyAlreadyExists(body string) bool {
	return strings.Contains(strings.ToLower(body), "already exists")
}
