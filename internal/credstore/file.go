package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileStore keeps credentials in a YAML file:
//
//	apiKey: sk-...
//	provider: openai
//	model: gpt-4o-mini
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load implements Store. A missing file yields empty credentials with defaults.
func (f *FileStore) Load(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	creds, err := f.read()
	if err != nil {
		return domain.Credentials{}, err
	}
	return creds.WithDefaults(), nil
}

// Save implements Store.
func (f *FileStore) Save(_ context.Context, creds domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	return f.write(merge(current, creds))
}

// Clear implements Store.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if err != nil {
		return err
	}
	current.APIKey = ""
	return f.write(current)
}

// Close implements Store.
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) read() (domain.Credentials, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var creds domain.Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse credentials file %s: %w", f.path, err)
	}
	return creds, nil
}

// write replaces the file atomically with mode 0600.
func (f *FileStore) write(creds domain.Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}
