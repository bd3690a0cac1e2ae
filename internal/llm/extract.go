package llm

import "encoding/json"

// extractContent pulls best-effort text out of a chat-completion response
// body, tolerating multiple shapes: the standard choices[0].message.content,
// a direct content field, a text field, or a plain JSON string. It never
// fails; absence of extractable content yields "".
func extractContent(body []byte) string {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		if choices, ok := v["choices"].([]any); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]any); ok {
				if message, ok := choice["message"].(map[string]any); ok {
					if content, ok := message["content"].(string); ok {
						return content
					}
				}
				if text, ok := choice["text"].(string); ok {
					return text
				}
			}
		}
		if content, ok := v["content"].(string); ok {
			return content
		}
		if text, ok := v["text"].(string); ok {
			return text
		}
	}
	return ""
}
