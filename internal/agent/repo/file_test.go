package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

func TestFileSession_MissingFileIsEmpty(t *testing.T) {
	r := NewFileSessionRepository(filepath.Join(t.TempDir(), "user_info.json"))

	h, err := r.LoadHistory(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, h.Messages)
}

func TestFileSession_PersistsJSONObject(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_info.json")
	r := NewFileSessionRepository(path)

	require.NoError(t, r.AddMessage(ctx, "alice", model.UserMessage("q1")))
	require.NoError(t, r.AddMessage(ctx, "alice", model.AssistantMessage("a1")))
	require.NoError(t, r.AddMessage(ctx, "bob", model.UserMessage("q2")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string][]map[string]string
	require.NoError(t, json.Unmarshal(b, &onDisk))
	require.Equal(t, []map[string]string{
		{"role": "user", "content": "q1"},
		{"role": "assistant", "content": "a1"},
	}, onDisk["alice"])
	require.Len(t, onDisk["bob"], 1)

	// a fresh repository on the same file sees the same data
	h, err := NewFileSessionRepository(path).LoadHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
}

func TestFileSession_ClearOnlyTouchesOneUser(t *testing.T) {
	ctx := context.Background()
	r := NewFileSessionRepository(filepath.Join(t.TempDir(), "user_info.json"))

	require.NoError(t, r.AddMessage(ctx, "alice", model.UserMessage("q1")))
	require.NoError(t, r.AddMessage(ctx, "bob", model.UserMessage("q2")))
	require.NoError(t, r.ClearHistory(ctx, "alice"))

	n, err := r.GetMessageCount(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = r.GetMessageCount(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestFileSession_ConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	r := NewFileSessionRepository(filepath.Join(t.TempDir(), "user_info.json"))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, r.AddMessage(ctx, "alice", model.UserMessage(fmt.Sprintf("m%d", i))))
		}(i)
	}
	wg.Wait()

	n, err := r.GetMessageCount(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, writers, n)
}

func TestFileSession_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_info.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	_, err := NewFileSessionRepository(path).LoadHistory(context.Background(), "alice")
	require.Error(t, err)
}
