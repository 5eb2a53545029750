package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// FileSessionRepository stores every session in one JSON object
// (username -> messages) rewritten wholesale on each mutation.
// The mutex serialises read-modify-write cycles inside the process and the
// temp-file rename keeps the file whole if the process dies mid write.
type FileSessionRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

func (r *FileSessionRepository) AddMessage(ctx context.Context, username string, message model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.read()
	if err != nil {
		return err
	}
	data[username] = append(data[username], message)
	return r.write(data)
}

func (r *FileSessionRepository) LoadHistory(ctx context.Context, username string) (*model.SessionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.read()
	if err != nil {
		return nil, err
	}
	msgs := make([]model.ChatMessage, len(data[username]))
	copy(msgs, data[username])
	return &model.SessionHistory{Username: username, Messages: msgs}, nil
}

func (r *FileSessionRepository) ClearHistory(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.read()
	if err != nil {
		return err
	}
	if _, ok := data[username]; !ok {
		return nil
	}
	delete(data, username)
	return r.write(data)
}

func (r *FileSessionRepository) GetMessageCount(ctx context.Context, username string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.read()
	if err != nil {
		return 0, err
	}
	return len(data[username]), nil
}

// read loads the whole file. A missing or empty file is an empty store.
func (r *FileSessionRepository) read() (map[string][]model.ChatMessage, error) {
	data := map[string][]model.ChatMessage{}
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data, nil
		}
		logx.Error().Err(err).Str("path", r.path).Msg("failed to read session file")
		return nil, errx.WrapStore(err)
	}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		logx.Error().Err(err).Str("path", r.path).Msg("failed to decode session file")
		return nil, errx.WrapStore(fmt.Errorf("decode %s: %w", r.path, err))
	}
	return data, nil
}

func (r *FileSessionRepository) write(data map[string][]model.ChatMessage) error {
	b, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return errx.WrapStore(fmt.Errorf("encode sessions: %w", err))
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		logx.Error().Err(err).Str("dir", dir).Msg("failed to create temp session file")
		return errx.WrapStore(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return errx.WrapStore(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errx.WrapStore(err)
	}
	if err := tmp.Close(); err != nil {
		return errx.WrapStore(err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		logx.Error().Err(err).Str("path", r.path).Msg("failed to replace session file")
		return errx.WrapStore(err)
	}
	return nil
}

var _ model.SessionRepository = (*FileSessionRepository)(nil)
