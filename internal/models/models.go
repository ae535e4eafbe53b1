package models

import "fmt"

// CredentialSource says where the backend's active API key came from.
type CredentialSource string

const (
	SourceNone        CredentialSource = ""
	SourceMemory      CredentialSource = "memory"      // set at runtime, clearable
	SourceEnvironment CredentialSource = "environment" // server process config, not clearable
)

// ParseCredentialSource maps the wire value onto a known source.
func ParseCredentialSource(s string) (CredentialSource, bool) {
	switch CredentialSource(s) {
	case SourceMemory, SourceEnvironment:
		return CredentialSource(s), true
	default:
		return SourceNone, false
	}
}

// CredentialStatus mirrors the server's view of the API key.
type CredentialStatus struct {
	Configured bool
	Source     CredentialSource
}

// Clearable reports whether the key can be removed from this client.
func (s CredentialStatus) Clearable() bool {
	return s.Configured && s.Source == SourceMemory
}

// Badge is the status badge text shown in the header and by `key status`.
func (s CredentialStatus) Badge() string {
	if !s.Configured {
		return "API Key: Not configured"
	}
	if s.Source == SourceNone {
		return "API Key: configured"
	}
	return fmt.Sprintf("API Key: %s", s.Source)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type ChatReply struct {
	Response string
	Model    string
	Usage    Usage
}

// Health is the backend's liveness probe payload.
type Health struct {
	Status  string
	Service string
}
