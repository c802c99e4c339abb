package genai

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// HashString returns a short stable fingerprint of text, used to
// correlate prompts and responses in audit trails. Not cryptographic.
func HashString(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum64())
}

// HashJSON fingerprints a value by its JSON encoding.
func HashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return HashString(string(data))
}
