// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/asset-cache/types"
)

// DefaultTTL is how long an asset stays servable after it was written.
const DefaultTTL = 30 * 24 * time.Hour

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

Expiry is evaluated lazily, at read time only. An expired entry is ignored by the
reader; nothing deletes it, and there is no background sweep.
*/
type Strategy interface {

	// IsExpired checks if the entry should be treated as absent at now.
	IsExpired(ent types.CacheEntry, now time.Time) bool
}
