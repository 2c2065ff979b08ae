package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a service response that is not valid JSON or does not
// match the expected schema. Callers use it to decide whether to fall back.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	snippet := e.Raw
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return fmt.Sprintf("failed to parse generation response: %s (raw: %s)", e.Reason, snippet)
}

// StripCodeFence removes a Markdown code fence wrapping a JSON document, if
// present. The service frequently fences its output even when asked not to.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// Decode strips any code fence and unmarshals the response text into v,
// returning a *ParseError on failure rather than assuming shape.
func Decode(text string, v interface{}) error {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return &ParseError{Reason: "empty response", Raw: text}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Reason: err.Error(), Raw: text}
	}
	return nil
}
