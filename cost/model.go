package cost

// Decision is the outcome of comparing a candidate encoding with the
// original text.
type Decision struct {
	OriginalTokens  int
	CandidateTokens int
	Accepted        bool
}

// Saved returns the number of tokens saved by accepting the candidate, or
// zero when it was rejected.
func (d Decision) Saved() int {
	if !d.Accepted {
		return 0
	}

	return d.OriginalTokens - d.CandidateTokens
}

// Model admits a candidate only when it is strictly cheaper than the original.
type Model struct {
	estimator Estimator
}

// NewModel creates a Model using est, or the approximation when est is nil.
func NewModel(est Estimator) *Model {
	if est == nil {
		est = NewApproxEstimator()
	}

	return &Model{estimator: est}
}

// Estimator returns the configured estimator.
func (m *Model) Estimator() Estimator {
	return m.estimator
}

// Evaluate compares the token cost of the original JSON text against the
// text of the candidate encoding.
func (m *Model) Evaluate(original, candidate string) Decision {
	orig := m.estimator.Count(original)
	cand := m.estimator.Count(candidate)

	return Decision{
		OriginalTokens:  orig,
		CandidateTokens: cand,
		Accepted:        cand < orig,
	}
}

// ShouldAccept reports whether the candidate beats the original.
func (m *Model) ShouldAccept(original, candidate string) bool {
	return m.Evaluate(original, candidate).Accepted
}
