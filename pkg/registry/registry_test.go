package registry_test

import (
	"testing"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/examples/counter"
	"github.com/aretw0/covenant/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct {
	Entries uint32
}

func (l *ledger) Record() { l.Entries++ }

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.MustRegister(counter.MustDefinition(), covenant.MustDefine[ledger]())

	assert.Equal(t, []string{"counter", "ledger"}, r.Names())

	def, err := r.Lookup("counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", def.Contract().Name())

	_, err = r.Lookup("missing")
	assert.EqualError(t, err, "contract not found: missing")

	assert.ErrorContains(t, r.Register(counter.MustDefinition()), "already registered")
	assert.ErrorContains(t, r.Register(covenant.Definition{}), "empty definition")
}
