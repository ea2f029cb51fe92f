// Package batch provisions policies from input records.
//
// A run logs in once and then handles each record in input order:
//
//	validate -> resolve search -> save search -> create policy
//
// The save step is skipped under the combined search strategy. A record that
// fails at any stage is counted and logged and the run moves on to the next
// one; only a failed login stops a run. A policy whose name already exists is
// counted as skipped rather than failed.
package batch
