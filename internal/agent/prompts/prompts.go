// Package prompts holds the versioned prompt artifacts sent to the LLM.
// Behavioral rules for the assistant live in the embedded files, not in code.
package prompts

import (
	_ "embed"
	"fmt"
)

//go:embed system_prompt.md
var systemPrompt string

// System returns the shopping-assistant system prompt.
func System() string {
	return systemPrompt
}

// LanguageReminder builds the per-round reminder that pins the response
// language to the user's input language.
func LanguageReminder(userInput string) string {
	return fmt.Sprintf(
		"IMPORTANT: The response should be in the same language as the user's input. "+
			"Here is the user's input: %s. "+
			"Analyze the user's input and determine the language before responding.",
		userInput)
}

// Selector builds the system prompt for the top-k selection call. The model
// must answer with nothing but a JSON list of item_id values.
func Selector(k int) string {
	return fmt.Sprintf(
		"You are a helpful shopping assistant for Mercari Japan. "+
			"You will receive a list of products from Mercari and a user's shopping request. "+
			"Please pick the top %d products that best match the user's needs, and directly return "+
			"a JSON list of their item_id (e.g. [\"id1\", \"id2\", \"id3\"]). "+
			"Do not return any explanation, only the JSON list.",
		k)
}

// CandidateList formats the scraped candidates for the selection call.
func CandidateList(candidatesJSON string) string {
	return "Here are all the products from Mercari (in JSON):\n" + candidatesJSON
}
