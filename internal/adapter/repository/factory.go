// Package repository selects the slot store backend from a spec string.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/moneyney/moneyney-backend/internal/adapter/repository/file"
	"github.com/moneyney/moneyney-backend/internal/adapter/repository/memory"
	"github.com/moneyney/moneyney-backend/internal/adapter/repository/postgres"
	"github.com/moneyney/moneyney-backend/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"

	defaultDataDir = "data"
)

// Opened is a store together with its backend name and release func
type Opened struct {
	Backend string
	Store   domain.Store
	Close   func() error
}

// Open returns the store for the provided backend spec.
// Examples:
//   - "memory"
//   - "file:/var/lib/moneyney" (a bare "file" uses ./data)
//   - "postgres" (connects with dsn)
func Open(ctx context.Context, spec, dsn string) (*Opened, error) {
	backend, arg := parseSpec(spec)
	noop := func() error { return nil }

	switch backend {
	case BackendMemory:
		return &Opened{Backend: BackendMemory, Store: memory.NewStore(), Close: noop}, nil
	case BackendFile:
		if arg == "" {
			arg = defaultDataDir
		}
		return &Opened{Backend: BackendFile, Store: file.NewStore(arg), Close: noop}, nil
	case BackendPostgres:
		if arg != "" {
			dsn = arg
		}
		db, err := postgres.NewDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Opened{Backend: BackendPostgres, Store: postgres.NewSlotStore(db), Close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}

func parseSpec(spec string) (backend, arg string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return BackendMemory, ""
	}
	if !strings.Contains(spec, ":") {
		return strings.ToLower(spec), ""
	}
	parts := strings.SplitN(spec, ":", 2)
	return strings.ToLower(parts[0]), parts[1]
}
