package ai

import "strings"

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// estimateTokens approximates the token count of a message list, words
// times the usual tokenizer ratio.
func estimateTokens(messages []Message) int {
	words := 0
	for _, m := range messages {
		words += len(strings.Fields(m.Content))
	}
	return int(float64(words) * tokenEstimationMultiplier)
}
