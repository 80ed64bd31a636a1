package calculator

// InputRequest is the JSON body of the input-carrying endpoints. Each input
// is a key glyph or value as accepted by Lookup.
type InputRequest struct {
	Inputs []string `json:"inputs"`
}

// SessionResponse is the JSON body returned by every session endpoint.
type SessionResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Snapshot
	Committed *CommitResult `json:"committed,omitempty"`
}

// CommitResult describes the last "=" in a batch of inputs.
type CommitResult struct {
	Value   *float64 `json:"value,omitempty"`
	Display string   `json:"display"`
	Error   string   `json:"error,omitempty"`
}

func newCommitResult(r Result) *CommitResult {
	if !r.OK() {
		return &CommitResult{Display: r.Display, Error: r.Err.Error()}
	}
	v := r.Value
	return &CommitResult{Value: &v, Display: r.Display}
}
