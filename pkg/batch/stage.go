package batch

//go:generate go run github.com/dmarkham/enumer -type Stage -trimprefix Stage -transform kebab -text -output stage.gen.go

// Stage is a step of processing one record. An outcome records the last
// stage a record reached, which for a failed record is the stage that failed.
type Stage int

const (
	StageParse Stage = iota
	StageMissingFields
	StageAuth
	StageSearchResolution
	StageSearchPersist
	StagePolicyCreation
)
