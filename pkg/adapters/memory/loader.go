package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/covenant/pkg/domain"
)

// Loader implements ports.DescriptorLoader using an in-memory map of JSON documents.
type Loader struct {
	docs map[string][]byte
}

// NewLoader creates a new Loader with the provided raw JSON descriptors.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte, len(data))
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{docs: docs}
}

// NewFromDescriptions creates a Loader from domain objects, keyed by method name.
func NewFromDescriptions(descs ...domain.MethodDescription) (*Loader, error) {
	docs := make(map[string][]byte, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("descriptor missing name")
		}
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal descriptor %s: %w", d.Name, err)
		}
		docs[d.Name] = raw
	}
	return &Loader{docs: docs}, nil
}

// Descriptors decodes every document.
func (l *Loader) Descriptors(ctx context.Context) (map[string]domain.MethodDescription, error) {
	out := make(map[string]domain.MethodDescription, len(l.docs))
	for id, raw := range l.docs {
		var d domain.MethodDescription
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", id, err)
		}
		if d.Name == "" {
			d.Name = id
		}
		out[id] = d
	}
	return out, nil
}
