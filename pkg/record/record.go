package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CSV column names.
const (
	ColumnQuery                  = "RQL_QUERY"
	ColumnPolicyName             = "POLICY_NAME"
	ColumnPolicyDescription      = "POLICY_DESCRIPTION"
	ColumnSeverity               = "POLICY_SEVERITY"
	ColumnLabels                 = "POLICY_LABELS"
	ColumnCloudType              = "POLICY_CLOUD_TYPE"
	ColumnSavedSearchName        = "SAVED_SEARCH_NAME"
	ColumnSavedSearchDescription = "SAVED_SEARCH_DESCRIPTION"
	ColumnRecommendation         = "POLICY_RECOMMENDATION"
)

// RequiredColumns must be present in the header of every input file.
var RequiredColumns = []string{
	ColumnQuery,
	ColumnPolicyName,
	ColumnSeverity,
	ColumnCloudType,
	ColumnSavedSearchName,
}

var (
	// ErrValidation is returned for records missing a required field.
	ErrValidation = errors.New("record validation failed")
	// ErrParse is returned for rows that could not be decoded.
	ErrParse = errors.New("malformed row")
)

// Record is one row of policy input.
type Record struct {
	Query                  string `csv:"RQL_QUERY" validate:"required"`
	PolicyName             string `csv:"POLICY_NAME" validate:"required"`
	PolicyDescription      string `csv:"POLICY_DESCRIPTION"`
	Severity               string `csv:"POLICY_SEVERITY" validate:"required"`
	RawLabels              string `csv:"POLICY_LABELS"`
	CloudType              string `csv:"POLICY_CLOUD_TYPE" validate:"required"`
	SavedSearchName        string `csv:"SAVED_SEARCH_NAME" validate:"required"`
	SavedSearchDescription string `csv:"SAVED_SEARCH_DESCRIPTION"`
	Recommendation         string `csv:"POLICY_RECOMMENDATION"`
}

// Labels returns the parsed label list.
func (r *Record) Labels() []string {
	return ParseLabels(r.RawLabels)
}

// Description returns the policy description, defaulting to the policy name.
func (r *Record) Description() string {
	if r.PolicyDescription != "" {
		return r.PolicyDescription
	}
	return r.PolicyName
}

// SearchDescription returns the saved search description, defaulting to the
// policy description.
func (r *Record) SearchDescription() string {
	if r.SavedSearchDescription != "" {
		return r.SavedSearchDescription
	}
	return r.Description()
}

// DeriveSavedSearchName fills an empty saved search name with "<policy name> Query".
func (r *Record) DeriveSavedSearchName() {
	if r.SavedSearchName == "" && r.PolicyName != "" {
		r.SavedSearchName = r.PolicyName + " Query"
	}
}

func (r *Record) trim() {
	r.Query = strings.TrimSpace(r.Query)
	r.PolicyName = strings.TrimSpace(r.PolicyName)
	r.PolicyDescription = strings.TrimSpace(r.PolicyDescription)
	r.Severity = strings.TrimSpace(r.Severity)
	r.RawLabels = strings.TrimSpace(r.RawLabels)
	r.CloudType = strings.TrimSpace(r.CloudType)
	r.SavedSearchName = strings.TrimSpace(r.SavedSearchName)
	r.SavedSearchDescription = strings.TrimSpace(r.SavedSearchDescription)
	r.Recommendation = strings.TrimSpace(r.Recommendation)
}

// ValidationError lists the required columns a record left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields %s", ErrValidation, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("csv")
	})
	return v
}

// Validate checks that every required field is present.
func (r *Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return &ValidationError{Missing: missing}
}

// ParseLabels splits a comma-delimited label list. Surrounding brackets and
// quotes, as written by spreadsheet exports of list values, are removed.
func ParseLabels(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	parts := strings.Split(s, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), `"'`))
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}
