package memory

import "fmt"

// Prompt templates for the three provider-facing operations. Kept in one
// place so tuning them never touches pipeline code.
const (
	extractSystemPrompt = "You extract durable facts about the user from conversation. " +
		"You output only the facts, one per line, with no numbering, headers or commentary."

	extractPromptFormat = "Review the conversation below and list at most %d short factual insights " +
		"about the user worth remembering long-term (preferences, background, goals, constraints). " +
		"One insight per line. If nothing is worth remembering, output nothing.\n\n%s"

	consolidateSystemPrompt = "You consolidate near-duplicate memory notes about a user into a single note. " +
		"You output only the consolidated note, nothing else."

	consolidatePromptFormat = "The following notes say almost the same thing. " +
		"Merge them into one note of at most %d characters that preserves every distinct detail:\n\n%s"

	profileSystemPrompt = "You describe how a set of stored memories shapes an assistant's behavior. " +
		"You output one short paragraph, nothing else."

	profilePromptFormat = "Given everything remembered about this user:\n\n%s\n\n" +
		"Write one short paragraph describing how these memories affect the assistant's disposition and replies."
)

func extractPrompt(transcript string) string {
	return fmt.Sprintf(extractPromptFormat, MaxInsights, transcript)
}

func consolidatePrompt(numbered string) string {
	return fmt.Sprintf(consolidatePromptFormat, MaxKeyPointLen, numbered)
}

func profilePrompt(numbered string) string {
	return fmt.Sprintf(profilePromptFormat, numbered)
}
