package scope

import (
	"context"

	"github.com/charmbracelet/log"

	"ndaredline/internal/domain"
	"ndaredline/internal/logging"
)

// LookupFunc adapts a plain function into a domain.CollectionLookup.
type LookupFunc func(ctx context.Context, userID string) (string, bool, error)

func (f LookupFunc) LookupCollection(ctx context.Context, userID string) (string, bool, error) {
	return f(ctx, userID)
}

// StaticLookup resolves user collections from a fixed map, typically the
// user_collections section of the config file.
type StaticLookup map[string]string

func (m StaticLookup) LookupCollection(_ context.Context, userID string) (string, bool, error) {
	id, ok := m[userID]
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

// Resolver builds the retrieval scope for a run: the default collection,
// then the user's collection when one exists.
type Resolver struct {
	defaultID string
	lookup    domain.CollectionLookup
	logger    *log.Logger
}

// NewResolver returns a resolver. A nil lookup means no user has a custom collection.
func NewResolver(defaultID string, lookup domain.CollectionLookup, logger *log.Logger) *Resolver {
	return &Resolver{defaultID: defaultID, lookup: lookup, logger: logging.OrDiscard(logger)}
}

// Resolve never fails: lookup errors are logged and the default scope is used.
// An empty userID means no user context.
func (r *Resolver) Resolve(ctx context.Context, userID string) domain.RetrievalScope {
	if userID == "" || r.lookup == nil {
		r.logger.Info("no user-specific vector store, using default only", "default", r.defaultID)
		return domain.NewRetrievalScope(r.defaultID)
	}
	id, ok, err := r.lookup.LookupCollection(ctx, userID)
	switch {
	case err != nil:
		r.logger.Warn("user vector store lookup failed, using default only", "user", userID, "err", err)
		return domain.NewRetrievalScope(r.defaultID)
	case !ok:
		r.logger.Info("no user-specific vector store, using default only", "user", userID)
		return domain.NewRetrievalScope(r.defaultID)
	}
	r.logger.Info("found user-specific vector store", "user", userID, "id", id)
	s := domain.NewRetrievalScope(r.defaultID, id)
	r.logger.Info("using vector store ids for search", "ids", s.IDs())
	return s
}
