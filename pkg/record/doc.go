// Package record decodes policy input files.
//
// Input is CSV with a header row. Columns are matched by name:
//
//	RQL_QUERY, POLICY_NAME, POLICY_DESCRIPTION, POLICY_SEVERITY, POLICY_LABELS,
//	POLICY_CLOUD_TYPE, SAVED_SEARCH_NAME, SAVED_SEARCH_DESCRIPTION,
//	POLICY_RECOMMENDATION
//
// RQL_QUERY, POLICY_NAME, POLICY_SEVERITY, POLICY_CLOUD_TYPE and
// SAVED_SEARCH_NAME are required both as header columns and as row values.
// Severity and cloud type are passed through unchecked; the API validates them.
//
// An empty POLICY_DESCRIPTION falls back to the policy name, and an empty
// SAVED_SEARCH_DESCRIPTION falls back to the policy description.
package record
