// Package prisma is a minimal client for the Prisma Cloud CSPM API.
//
// It covers the four operations needed to provision policies from queries:
//
//   - Login: exchange an access key pair for a session token
//   - ResolveSearch: submit an RQL query and obtain a search handle
//   - SaveSearch: turn a transient search into a named saved search
//   - CreatePolicy: register a policy whose rule references a saved search
//
// # Errors
//
// Each operation wraps one sentinel so callers can tell which stage failed:
//
//	ErrAuthentication, ErrSearchResolution, ErrSearchPersist, ErrPolicyCreation
//
// Non-2xx responses are additionally exposed as *APIError, including the
// entries of the x-redlock-status header. A duplicate policy name is reported
// as ErrDuplicatePolicy, which wraps ErrPolicyCreation.
//
// # Endpoints
//
// Paths differ between API generations and stacks, so they are configuration
// (see Endpoints) rather than constants. DefaultEndpoints returns the paths of
// the public API.
package prisma
