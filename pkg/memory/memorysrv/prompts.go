package memorysrv

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const factExtractionPrompt = `You organize personal information. Read the conversation and extract the
facts worth remembering about the user: preferences, personal details, plans, relationships,
health, work, opinions and anything they ask to be remembered.

Rules:
- Today's date is %s.
- Write each fact as a short standalone sentence in the language of the conversation.
- Skip greetings, small talk and anything the assistant said unless the user confirmed it.
- Return an empty list when nothing is worth remembering.

Respond with a JSON object only, in this exact shape:
{"facts": ["fact one", "fact two"]}

Examples:
Input: user: Hi.
Output: {"facts": []}

Input: user: I'm Sam, I moved to Lisbon last year and I'm vegetarian.
Output: {"facts": ["Name is Sam", "Moved to Lisbon last year", "Is vegetarian"]}`

const updateMemoryPrompt = `You maintain a memory store. Compare newly retrieved facts with the existing
memories and decide, for every memory and every fact, one of these operations:

- ADD: the fact is new information. Use a new id.
- UPDATE: the fact refines or replaces an existing memory about the same thing. Keep the
  existing id, put the merged text in "text" and the previous text in "old_memory".
  Prefer the version carrying more information.
- DELETE: the fact contradicts an existing memory. Keep the existing id.
- NONE: the memory is unchanged or the fact is already present.

Only use ids from the existing memories for UPDATE, DELETE and NONE.

Existing memories:
%s

New facts:
%s

Respond with a JSON object only, in this exact shape:
{"memory": [{"id": "0", "text": "...", "event": "ADD|UPDATE|DELETE|NONE", "old_memory": "..."}]}`

func buildFactExtractionPrompt(now time.Time) string {
	return fmt.Sprintf(factExtractionPrompt, now.UTC().Format("2006-01-02"))
}

type aliasedMemory struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func buildUpdatePrompt(existing []aliasedMemory, facts []string) string {
	if existing == nil {
		existing = []aliasedMemory{}
	}
	old, _ := json.MarshalIndent(existing, "", "  ")
	newFacts, _ := json.MarshalIndent(facts, "", "  ")
	return fmt.Sprintf(updateMemoryPrompt, old, newFacts)
}

// formatConversation renders non-system messages as "role: content" lines
func formatConversation(lines [][2]string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l[0])
		b.WriteString(": ")
		b.WriteString(l[1])
		b.WriteString("\n")
	}
	return b.String()
}
