package scanning

import (
	"strings"
)

// transcriptionPrompt is the shared prompt used by all LLM providers for reading travel documents
const transcriptionPrompt = `You are reading a photo of an airline boarding pass, e-ticket or itinerary receipt.
Transcribe every piece of printed text exactly as it appears, including airport codes,
city names, flight numbers, dates and booking references.

Important:
- Keep the original capitalisation and spelling; do not translate or correct anything
- Put each printed line on its own line
- Do not summarise, explain or add any text of your own
- Do not use markdown code blocks
- If the image contains no readable text, return nothing`

// cleanResponseText trims whitespace and any markdown code fence a model
// wrapped its transcription in.
func cleanResponseText(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, which may carry a language tag
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
