package storage

import (
	"errors"

	"github.com/cuemby/vespanet/pkg/types"
)

// ErrNotFound is returned when no provision entry exists for an IP
var ErrNotFound = errors.New("provision entry not found")

// Store keeps the provisioning history, one entry per container IP.
// The history is diagnostic: nothing in the configure flow reads it.
type Store interface {
	RecordProvision(entry *types.ProvisionEntry) error
	GetProvision(containerIP string) (*types.ProvisionEntry, error)
	ListProvisions() ([]*types.ProvisionEntry, error)
	DeleteProvision(containerIP string) error

	Close() error
}
