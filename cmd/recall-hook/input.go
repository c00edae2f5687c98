package main

import (
	"encoding/json"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// HookInput is the payload the host assistant writes to stdin on each
// hook invocation.
type HookInput struct {
	// SessionID identifies the conversation.
	SessionID string `json:"session_id"`

	// Cwd is the project working directory.
	Cwd string `json:"cwd"`

	// Prompt is the new user message (user-prompt hook only).
	Prompt string `json:"prompt"`
}

// ProjectID derives the project identifier from the working directory
// basename. An empty cwd yields an empty id, which routes only shared
// partitions meaningfully.
func (in *HookInput) ProjectID() string {
	if in.Cwd == "" {
		return ""
	}
	return filepath.Base(in.Cwd)
}

// ReadHookInput parses the hook payload. A malformed or empty payload
// yields a zero-valued input rather than an error: downstream sanitization
// maps the missing session id to a stable default.
func ReadHookInput(r io.Reader, logger *zap.Logger) *HookInput {
	var input HookInput
	if err := json.NewDecoder(r).Decode(&input); err != nil && err != io.EOF {
		logger.Debug("unparseable hook payload", zap.Error(err))
	}
	return &input
}
