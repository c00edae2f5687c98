package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReadHookInput(t *testing.T) {
	payload := `{"session_id":"sess-42","cwd":"/home/dev/payments","prompt":"why did we pick grpc"}`

	input := ReadHookInput(strings.NewReader(payload), zap.NewNop())
	assert.Equal(t, "sess-42", input.SessionID)
	assert.Equal(t, "/home/dev/payments", input.Cwd)
	assert.Equal(t, "why did we pick grpc", input.Prompt)
	assert.Equal(t, "payments", input.ProjectID())
}

func TestReadHookInput_EmptyStdin(t *testing.T) {
	input := ReadHookInput(strings.NewReader(""), zap.NewNop())
	assert.Equal(t, "", input.SessionID)
	assert.Equal(t, "", input.ProjectID())
}

func TestReadHookInput_MalformedPayload(t *testing.T) {
	input := ReadHookInput(strings.NewReader("{not json"), zap.NewNop())
	assert.NotNil(t, input)
	assert.Equal(t, "", input.SessionID)
}
