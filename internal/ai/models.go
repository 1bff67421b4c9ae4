package ai

// Suggestion is the structured reply the interpreter is constrained to.
// FoundSlot must be one of the candidate start instants it was shown,
// verbatim; the resolver verifies membership and discards anything else.
type Suggestion struct {
	FoundSlot        string `json:"found_slot"`
	EventName        string `json:"event_name"`
	EventDescription string `json:"event_description"`
	Message          string `json:"message"`
}
