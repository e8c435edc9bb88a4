package backend

import (
	"context"

	"contas/internal/ports"
)

// Store is everything the services need from a data backend.
type Store interface {
	ports.HouseholdResolver
	ports.HouseholdWriter
	ports.HouseholdLister
	ports.SalaryConfigReader
	ports.SalaryConfigWriter
	ports.SnapshotStore
	ports.Pinger
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the backend instances and the cleanup releasing them.
type Result struct {
	Store Store
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ports.SnapshotPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath   string
	PostgresDSN    string
	MemorySeedFile string

	// AMQP is optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
