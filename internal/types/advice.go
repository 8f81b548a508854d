package types

// Verdict is the advisory gate's opinion on a signal.
type Verdict string

const (
	VerdictAgree    Verdict = "Agree"
	VerdictDisagree Verdict = "Disagree"
	VerdictCaution  Verdict = "Caution"
)

// Advice is a verdict plus the advisor's free-text commentary.
type Advice struct {
	Verdict Verdict `yaml:"verdict" json:"verdict"`
	Comment string  `yaml:"comment" json:"comment"`
	Model   string  `yaml:"model" json:"model"`
}
