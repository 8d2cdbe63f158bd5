package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/krisalay/asset-cache/types"
)

// Router dispatches a Load to the loader registered for the key's URL scheme.
type Router struct {
	mu     sync.RWMutex
	routes map[string]types.Loader
}

// NewRouter returns a router with http and https routed to an HTTPLoader
// built from opts.
func NewRouter(opts ...HTTPOption) *Router {
	r := &Router{routes: make(map[string]types.Loader)}
	httpLoader := NewHTTPLoader(opts...)
	r.Handle("http", httpLoader)
	r.Handle("https", httpLoader)
	return r
}

// Handle registers loader for scheme, replacing any previous one.
func (r *Router) Handle(scheme string, loader types.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[strings.ToLower(scheme)] = loader
}

// Load routes asset to its scheme's loader. An unknown scheme is FetchFailed.
func (r *Router) Load(ctx context.Context, asset types.Asset) (types.Payload, error) {
	u, err := url.Parse(asset.Key)
	if err != nil {
		return types.Payload{}, types.FetchFailed(err, asset.Key)
	}

	r.mu.RLock()
	loader, ok := r.routes[strings.ToLower(u.Scheme)]
	r.mu.RUnlock()
	if !ok {
		return types.Payload{}, types.FetchFailed(fmt.Errorf("no loader for scheme %q", u.Scheme), asset.Key)
	}
	return loader.Load(ctx, asset)
}
