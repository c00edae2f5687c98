package injection

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_AppendsOneRecordPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l := NewAuditLogger(path, nil)

	l.Log(Event{Tier: 1, Trigger: "session_start", SessionID: "s1", Budget: 1000})
	l.Log(Event{Tier: 2, Trigger: "user_prompt", SessionID: "s1", Budget: 512, TokensUsed: 300})

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Tier)
	assert.Equal(t, 2, events[1].Tier)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestAuditLogger_UnwritablePathIsSwallowed(t *testing.T) {
	// Path points into a file, so the directory create fails; the call
	// must not panic or surface anything.
	base := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o600))

	l := NewAuditLogger(filepath.Join(base, "audit.jsonl"), nil)
	l.Log(Event{Tier: 2})
}
