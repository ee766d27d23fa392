package chat

import "fmt"

// ── Prompt Template ──

// BuildPrompt places the context block ahead of the user's question and
// closes with the answering instructions.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(`Context about stock market data:
%s

User Question: %s

Please provide a helpful response based on the available stock market data.
If the question is about specific data that's not available in the context,
please mention that and provide general information about stock markets.`, context, question)
}

// ErrorResponse is the user-facing text of a failed answer.
func ErrorResponse(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error: %v", err)
}
