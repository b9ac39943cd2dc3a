package summarizer

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

// DefaultTemplate is used when no prompt file is given. {url} and {text}
// are substituted with the page URL and extracted text.
const DefaultTemplate = `You will see the content of a webpage from {url}.
Write a concise summary of it for a site digest.
Answer with the summary alone; it is inserted into the digest verbatim.
Keep the original style and language of the page.
Webpage content to summarize:`

// Reasoning models leak their chain of thought in <think> blocks.
var thinkRE = regexp.MustCompile(`(?s)<think>.*</think>\s*`)

// StripThink removes <think>...</think> blocks from a model response.
func StripThink(response string) string {
	return thinkRE.ReplaceAllString(response, "")
}

// PromptDigest returns a short stable fingerprint of a prompt template.
func PromptDigest(template string) string {
	sum := sha256.Sum256([]byte(template))
	return fmt.Sprintf("%x", sum[:6])
}
