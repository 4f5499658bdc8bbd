package auth

// Outcome classifies what the identity provider did with a login attempt.
type Outcome int

const (
	// OutcomeSkipped means the provider was not consulted.
	OutcomeSkipped Outcome = iota
	OutcomeSuccess
	// OutcomeDenied is an access policy rejection (403).
	OutcomeDenied
	// OutcomeNetwork means no response was received.
	OutcomeNetwork
	// OutcomeFailure is any other non-2xx answer.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSuccess:
		return "success"
	case OutcomeDenied:
		return "denied"
	case OutcomeNetwork:
		return "network"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Decision is what Authenticate does for a given row of the table.
type Decision int

const (
	DecisionReject Decision = iota
	DecisionUseUpstream
	DecisionFallback
	DecisionFail
)

func (d Decision) String() string {
	switch d {
	case DecisionReject:
		return "reject"
	case DecisionUseUpstream:
		return "use-upstream"
	case DecisionFallback:
		return "fallback"
	case DecisionFail:
		return "fail"
	default:
		return "unknown"
	}
}

type row struct {
	credentialsValid bool
	outcome          Outcome
}

// decisions is the complete login policy. Invalid credentials only ever appear with
// OutcomeSkipped because the provider is never called for them.
var decisions = map[row]Decision{
	{false, OutcomeSkipped}: DecisionReject,
	{true, OutcomeSuccess}:  DecisionUseUpstream,
	{true, OutcomeDenied}:   DecisionFallback,
	{true, OutcomeNetwork}:  DecisionFallback,
	{true, OutcomeFailure}:  DecisionFail,
}

// Decide looks up the login policy. Rows missing from the table reject.
func Decide(credentialsValid bool, outcome Outcome) Decision {
	if d, ok := decisions[row{credentialsValid, outcome}]; ok {
		return d
	}
	return DecisionReject
}
