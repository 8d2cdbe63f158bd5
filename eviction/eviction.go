package eviction

/*
This file defines how the memory tier decides what to remove when it runs out of space.
*/

/*
Policy is the interface that all eviction strategies must follow.

The memory tier does NOT care how eviction works internally.
It only calls these methods, always while holding its write lock,
so implementations do not need their own synchronization.
*/
type Policy interface {

	// OnGet is called whenever a key is read from the memory tier.
	//
	// Insertion-order eviction ignores reads: re-reading a key
	// must not refresh its position.
	OnGet(string)

	// OnPut is called whenever a key is written to the memory tier.
	//
	// Overwriting a key that is already tracked keeps its original position.
	OnPut(string)

	// Remove is called when a key is explicitly removed
	// (not evicted) so the policy can drop its bookkeeping.
	Remove(string)

	// Evict is called when the tier holds more keys than its capacity.
	// It returns the key to drop, or "" when nothing is tracked.
	Evict() string

	// Len returns how many keys the policy is tracking.
	Len() int

	// Reset forgets every tracked key.
	Reset()
}
