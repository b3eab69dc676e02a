package ports

import (
	"context"

	"github.com/aretw0/covenant/pkg/domain"
)

// DescriptorLoader reads method descriptors from a document source.
// It backs offline checks where no Go code is bound, only declared signatures.
type DescriptorLoader interface {
	// Descriptors returns every method description found, keyed by document ID.
	Descriptors(ctx context.Context) (map[string]domain.MethodDescription, error)
}
