package ai

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// suggestionSchema constrains the model's reply to the Suggestion shape.
var suggestionSchema = func() *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(&Suggestion{})
}()

func buildSystemPrompt(candidates []string) string {
	return fmt.Sprintf(`You are a calendar scheduling assistant. The user will describe an event they want to schedule.

Available slots (each is a one-hour opening, start time in UTC):
%s

Rules:
- Pick exactly one start time from the list above and return it in found_slot, copied verbatim
- If no listed slot fits the request, return an empty found_slot
- Never invent a time that is not in the list
- Extract a short event name into event_name and any stated purpose into event_description
- Put a one-sentence confirmation for the user into message

Return valid JSON matching the required schema.`, strings.Join(candidates, "\n"))
}

func buildUserPrompt(command string) string {
	return fmt.Sprintf("Scheduling request: %s", command)
}
