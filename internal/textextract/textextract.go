// Package textextract provides the text-extraction backends used by the
// attachment processor: native PDF text via go-fitz, and OCR of images
// through a vision model (Google Gemini or a local Ollama instance).
// Every backend exposes the same contract: bytes in, plain text out, or
// an error. The backends only produce text; they know nothing about
// invoice structure.
package textextract

import "strings"

// transcribePrompt is the shared prompt used by the vision-model OCR
// backends. The model is asked for a faithful transcription, not for
// interpretation; field extraction happens downstream on the raw text.
const transcribePrompt = `You are performing OCR on a scanned invoice or receipt. The document may contain Hebrew, English, or both.

Transcribe ALL visible text exactly as it appears, preserving line breaks and reading order (top to bottom). Keep labels, numbers, currency symbols and punctuation unchanged.

Return ONLY the transcribed plain text:
- No commentary, no translation, no summaries
- No markdown code blocks
- If a word is unreadable, skip it rather than guessing`

// cleanTranscription strips markdown fences some models wrap around
// their output despite instructions.
func cleanTranscription(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
