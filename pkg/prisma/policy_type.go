package prisma

//go:generate go run github.com/dmarkham/enumer -type PolicyType -trimprefix PolicyType -transform lower -text -output policy_type.gen.go

// PolicyType is the policy class a created policy belongs to. It also selects
// which search endpoint resolves the policy's query.
type PolicyType int

const (
	PolicyTypeConfig PolicyType = iota
	PolicyTypeIAM
)

// RuleType is the value the API expects in rule.type.
func (t PolicyType) RuleType() string {
	switch t {
	case PolicyTypeIAM:
		return "IAM"
	default:
		return "Config"
	}
}
