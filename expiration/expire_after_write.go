package expiration

import (
	"time"

	"github.com/krisalay/asset-cache/types"
)

/*
ExpireAfterWrite implements a fixed TTL measured from the entry's write timestamp.

Unlike a sliding TTL, reading an entry does NOT extend its life: an asset written
30 days ago is expired no matter how often it was read since.
*/
type ExpireAfterWrite struct {

	// TTL is how long the entry stays valid after its last write.
	// A zero or negative TTL disables expiry.
	TTL time.Duration
}

// IsExpired reports whether now - timestamp > TTL. An entry exactly TTL old is still live.
func (e *ExpireAfterWrite) IsExpired(ent types.CacheEntry, now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return ent.Age(now) > e.TTL
}
