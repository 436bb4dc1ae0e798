package controllers

// Test-only aliases so the external test package can decode responses.
type (
	ChatResponse = chatResponse
	StreamLine   = streamLine
)
