// Package content resolves polymorphic (kind, id) references to the
// heterogeneous content types that can be flagged for moderation.
package content

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// Handle is a resolved piece of flaggable content.
type Handle interface {
	// Describe returns a short human-readable preview for moderator dashboards.
	Describe() string
	// Owner returns the user the content belongs to, for audit attribution.
	// uuid.Nil when ownership cannot be determined.
	Owner() uuid.UUID
	// Delete removes the content. Deleting already-removed content is a no-op.
	Delete(ctx context.Context) error
}

// Provider exposes one flaggable content kind to the moderation engine.
type Provider interface {
	// Kind returns the stable identifier for this content type, e.g. "post".
	Kind() string
	Resolve(ctx context.Context, id uuid.UUID) (Handle, error)
}

// Searcher is implemented by providers whose content has searchable text.
type Searcher interface {
	SearchIDs(ctx context.Context, text string) ([]uuid.UUID, error)
}

// Editor is implemented by providers that allow moderators to edit content fields.
type Editor interface {
	Edit(ctx context.Context, id uuid.UUID, fields map[string]string) error
}

var (
	ErrUnknownKind = utils.NewError(utils.ErrNotFound.Code, "Unknown content type")
	ErrNotFound    = utils.NewError(utils.ErrNotFound.Code, "Content not found")
)

// Registry dispatches (kind, id) references to registered providers.
// It holds no business logic beyond dispatch.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = p
}

// Provider returns the provider for a kind, if registered.
func (r *Registry) Provider(kind string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind]
	return p, ok
}

// Providers returns all registered providers.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Resolve maps a (kind, id) pair to a content handle.
func (r *Registry) Resolve(ctx context.Context, kind string, id uuid.UUID) (Handle, error) {
	p, ok := r.Provider(kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	return p.Resolve(ctx, id)
}

// Delete removes the referenced content. Unknown kinds and already-deleted
// ids are no-ops, which tolerates the delete-ordering race in the flag store.
func (r *Registry) Delete(ctx context.Context, kind string, id uuid.UUID) error {
	h, err := r.Resolve(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownKind) {
			return nil
		}
		return err
	}
	return h.Delete(ctx)
}
