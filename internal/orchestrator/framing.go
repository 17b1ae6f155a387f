package orchestrator

import "fmt"

// FrameContext wraps verified page text and the original prompt into the
// user message the model answers.
func FrameContext(text, prompt string) string {
	return fmt.Sprintf("SEARCH RESULT: %s\n\nUSER PROMPT: %s", text, prompt)
}

// FrameFailure tells the model the search found nothing usable and that it
// should ask the user how to proceed instead of answering.
func FrameFailure(prompt string) string {
	return fmt.Sprintf("USER PROMPT: \n%s \n\nFAILED SEARCH: \n"+
		"The AI search model was unable to extract any reliable data. "+
		"Explain that and ask if the user would like you to search again or respond without web search context. "+
		"Do not respond if a search was needed and you are getting this message with anything but the above request of how the user would like to proceed",
		prompt)
}
