// Package loam reads method descriptor documents (Markdown with frontmatter,
// JSON or YAML) from a Loam repository.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.DescriptorLoader.
type Loader struct {
	Repo *loam.TypedRepository[MethodMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[MethodMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[MethodMetadata](repo)), nil
}

// Descriptors lists every document and converts its metadata. Two documents
// declaring the same ID are a collision.
func (l *Loader) Descriptors(ctx context.Context) (map[string]domain.MethodDescription, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make(map[string]domain.MethodDescription, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		desc, err := doc.Data.Description(filepath.Base(id))
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", id, err)
		}
		out[id] = desc
	}
	return out, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
