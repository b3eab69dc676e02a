// Package codec encodes method arguments, results, errors and state.
//
// Two codecs exist, one per serialization choice: structured text (JSON,
// canonicalized per RFC 8785) and compact binary (Borsh). Both are symmetric:
// Unmarshal(Marshal(v)) yields v for every value whose type has a schema in
// that codec.
package codec

import (
	"fmt"

	"github.com/aretw0/covenant/pkg/domain"
)

// Codec marshals values for one serialization choice.
// Implementations are deterministic: equal values encode to equal bytes.
type Codec interface {
	Choice() domain.SerializationChoice
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps serialization choices and content types to codecs.
type Registry struct {
	byChoice map[domain.SerializationChoice]Codec
	byType   map[string]Codec
}

// NewRegistry returns a registry holding the JSON and Borsh codecs.
func NewRegistry() *Registry {
	r := &Registry{
		byChoice: make(map[domain.SerializationChoice]Codec),
		byType:   make(map[string]Codec),
	}
	r.Register(JSON())
	r.Register(Borsh())
	return r
}

// Register adds or replaces a codec.
func (r *Registry) Register(c Codec) {
	r.byChoice[c.Choice()] = c
	r.byType[c.ContentType()] = c
}

// For returns the codec of a serialization choice.
func (r *Registry) For(choice domain.SerializationChoice) (Codec, error) {
	c, ok := r.byChoice[choice]
	if !ok {
		return nil, fmt.Errorf("no codec for serialization %s", choice)
	}
	return c, nil
}

// ByContentType returns the codec for a MIME type, or nil.
func (r *Registry) ByContentType(contentType string) Codec {
	return r.byType[contentType]
}

var defaultRegistry = NewRegistry()

// For returns the built-in codec of a serialization choice.
func For(choice domain.SerializationChoice) Codec {
	c, err := defaultRegistry.For(choice)
	if err != nil {
		panic(err)
	}
	return c
}
