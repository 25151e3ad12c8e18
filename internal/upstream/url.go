// Package upstream builds endpoint URLs for the chat/embedding provider.
package upstream

import "strings"

const version = "/v1"

// Endpoint joins a base URL with a versioned API path. The version segment is
// appended only when the base does not already end with it, so configured
// bases like "https://host" and "https://host/v1" resolve identically.
func Endpoint(base, path string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, version) {
		return base + "/" + path
	}
	return base + version + "/" + path
}

// EmbeddingsURL returns the embeddings endpoint for the given base URL.
func EmbeddingsURL(base string) string {
	return Endpoint(base, "embeddings")
}

// ChatCompletionsURL returns the chat-completions endpoint for the given base URL.
func ChatCompletionsURL(base string) string {
	return Endpoint(base, "chat/completions")
}
