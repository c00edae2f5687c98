package session

// NeutralDrift is the topic drift value used when no history exists.
const NeutralDrift = 0.5

// State holds the small per-conversation state that survives across the
// short-lived hook invocations making up one conversation.
type State struct {
	// SessionID is the stable identifier for the conversation.
	SessionID string `json:"session_id"`

	// InjectedIDs records which results were already shown this
	// conversation. It only grows within a context window and is cleared
	// at a compaction boundary.
	InjectedIDs map[string]bool `json:"injected_ids"`

	// LastQueryVector is the previous turn's query embedding, nil when no
	// turn has happened yet.
	LastQueryVector []float32 `json:"last_query_vector,omitempty"`

	// TopicDrift is the last computed drift in [0,1].
	TopicDrift float64 `json:"topic_drift"`

	// TurnCount is the number of Tier 2 turns processed.
	TurnCount int `json:"turn_count"`

	// TotalTokensInjected is the cumulative token spend this conversation.
	TotalTokensInjected int `json:"total_tokens_injected"`
}

// NewState creates a fresh state for a session.
func NewState(sessionID string) *State {
	return &State{
		SessionID:   sessionID,
		InjectedIDs: make(map[string]bool),
		TopicDrift:  NeutralDrift,
	}
}

// MarkInjected records that a result id has been shown.
func (s *State) MarkInjected(id string) {
	if s.InjectedIDs == nil {
		s.InjectedIDs = make(map[string]bool)
	}
	s.InjectedIDs[id] = true
}

// WasInjected reports whether a result id has been shown this window.
func (s *State) WasInjected(id string) bool {
	return s.InjectedIDs[id]
}
