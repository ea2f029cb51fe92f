package config

//go:generate go run github.com/dmarkham/enumer -type SearchStrategy -trimprefix SearchStrategy -transform lower -text -output search_strategy.gen.go

// SearchStrategy selects how a policy's saved search is obtained.
type SearchStrategy int

const (
	// SearchStrategySeparate resolves the query to a transient search and then
	// saves it under the record's saved search name.
	SearchStrategySeparate SearchStrategy = iota
	// SearchStrategyCombined sends name and description with the query and
	// uses the returned handle as the saved search.
	SearchStrategyCombined
)
