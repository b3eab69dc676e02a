package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
)

const ext = ".state.json"

// Store implements ports.StateStore on the local filesystem.
// Each account's record is one JSON file in BasePath.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath (".covenant/state" when empty).
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".covenant", "state")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(account string) (string, error) {
	if account == "" {
		return "", fmt.Errorf("account cannot be empty")
	}
	if strings.ContainsAny(account, `/\`) || account == "." || account == ".." {
		return "", fmt.Errorf("invalid account id %q", account)
	}
	return filepath.Join(s.BasePath, account+ext), nil
}

// Save writes the record atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	destPath, err := s.path(account)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state record: %w", err)
	}

	// same directory, so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+ext+".partial")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace state file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move state file into place: %w", err)
	}
	return nil
}

// Load reads the record of account.
func (s *Store) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	filePath, err := s.path(account)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record of account. Missing records are not an error.
func (s *Store) Delete(ctx context.Context, account string) error {
	filePath, err := s.path(account)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// List returns every account with a stored record.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list state files: %w", err)
	}

	accounts := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(name, ext))
	}
	return accounts, nil
}
