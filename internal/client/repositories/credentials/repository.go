// Package credentials persists the named credential strings of the client
// in the local SQLite database.
package credentials

import "context"

// Repository stores credential values by fixed name.
//
// Get returns ok=false for a missing name. SetAll and DeleteAll apply all
// names atomically, so a pair is never half-written or half-cleared.
type Repository interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	SetAll(ctx context.Context, values map[string]string) error
	DeleteAll(ctx context.Context, names ...string) error
	List(ctx context.Context) (map[string]string, error)
}
