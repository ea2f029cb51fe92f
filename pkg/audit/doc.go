// Package audit provides audit logging for policyctl runs.
//
// Every remote mutation is written as one RFC5424 syslog line: logins,
// saved searches and policy creations. Lines carry the run id in a run@32473
// structured data element so all lines of one invocation can be correlated
// with the application log and the x-request-id header sent to the API.
//
// # Usage
//
//	logger := audit.NewLogger(runID)
//	logger.SetWriter(file)
//	logger.Log(audit.PolicyEvent{Name: "Open SG", PolicyID: id, Success: true})
package audit
