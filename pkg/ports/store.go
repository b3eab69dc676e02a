package ports

import (
	"context"

	"github.com/aretw0/covenant/pkg/domain"
)

// StateStore defines the interface for persisting contract state.
// Records are keyed by account; the record carries the codec its data was written with.
type StateStore interface {
	// Save persists the record for a given account.
	Save(ctx context.Context, account string, rec *domain.StateRecord) error

	// Load retrieves the record for a given account.
	// Returns domain.ErrStateNotFound if the account has no state.
	Load(ctx context.Context, account string) (*domain.StateRecord, error)

	// Delete removes the record for a given account.
	Delete(ctx context.Context, account string) error

	// List returns the accounts that currently hold state.
	List(ctx context.Context) ([]string, error)
}
