package core

import (
	"context"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// Adapter is the backing persistence collaborator. The dispatcher calls
// exactly one adapter method per operation, after the before chain and
// before the after chain; everything behind this interface (storage,
// retries, transactions) is opaque to the interception core.
//
// Read methods return (nil, nil) when no record matches. Write methods
// return the persisted record. Preload mutates the given records in
// place, filling the requested relation fields.
type Adapter interface {
	Insert(ctx context.Context, cs *Changeset) (any, error)
	Update(ctx context.Context, cs *Changeset) (any, error)
	Delete(ctx context.Context, cs *Changeset) (any, error)
	One(ctx context.Context, q *query.Query) (any, error)
	Get(ctx context.Context, m *model.Model, key any) (any, error)
	All(ctx context.Context, q *query.Query) ([]any, error)
	Reload(ctx context.Context, record any) (any, error)
	Preload(ctx context.Context, records any, specs []query.PreloadSpec) error
}
