package gate

// #region action
// Action is the outcome of a dirty check.
type Action string

const (
	ActionRecompute Action = "recompute"
	ActionSkip      Action = "skip"
)

// #endregion action

// #region compare-mode
// CompareMode selects how watched state objects are compared between checks.
type CompareMode int

const (
	// CompareIdentity trusts the host to issue a new *StateObject exactly when
	// an entity changes. One pointer comparison per watched entity.
	CompareIdentity CompareMode = iota
	// CompareStructural deep-compares state and attributes, for hosts that
	// cannot guarantee identity semantics. Cost grows with attribute size.
	CompareStructural
)

// #endregion compare-mode

// #region gate-config
// GateConfig holds dirty check options.
type GateConfig struct {
	Compare CompareMode
}

// DefaultGateConfig returns identity comparison.
func DefaultGateConfig() GateConfig {
	return GateConfig{Compare: CompareIdentity}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of a dirty check.
type GateDecision struct {
	Action        Action
	Reason        string
	Changed       []string // watched entity ids whose state object differed
	LocaleChanged bool
}

// Dirty reports whether recomputation is required.
func (d GateDecision) Dirty() bool {
	return d.Action == ActionRecompute
}

// #endregion gate-decision
