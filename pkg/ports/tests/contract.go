package tests

import (
	"context"
	"testing"

	"github.com/aretw0/covenant/pkg/ports"
)

// DescriptorLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.DescriptorLoader.
// want maps document IDs to the method name each document must declare.
func DescriptorLoaderContractTest(t *testing.T, loader ports.DescriptorLoader, want map[string]string) {
	t.Helper()

	descs, err := loader.Descriptors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading descriptors: %v", err)
	}

	t.Run("Count", func(t *testing.T) {
		if len(descs) != len(want) {
			t.Errorf("expected %d descriptors, got %d", len(want), len(descs))
		}
	})

	t.Run("Names", func(t *testing.T) {
		for id, name := range want {
			desc, ok := descs[id]
			if !ok {
				t.Errorf("descriptor %s missing", id)
				continue
			}
			if desc.Name != name {
				t.Errorf("descriptor %s: got name %q, want %q", id, desc.Name, name)
			}
		}
	})
}
