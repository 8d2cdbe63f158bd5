// This file implements FIFO (insertion-order) eviction.

package eviction

type fifo struct {
	// queue keeps keys in the order they were first inserted.
	// The front of the queue (index 0) is the oldest key.
	queue []string

	// set keeps track of which keys are currently in the queue.
	set map[string]struct{}
}

// NewFIFO returns a policy that evicts the oldest-inserted key, regardless of access.
func NewFIFO() Policy {
	return &fifo{
		queue: make([]string, 0),
		set:   make(map[string]struct{}),
	}
}

// OnGet does nothing: FIFO ignores reads completely.
func (f *fifo) OnGet(string) {}

// OnPut appends a new key to the end of the queue.
// A key that is already tracked keeps its place; FIFO only cares about the first insertion.
func (f *fifo) OnPut(k string) {
	if _, ok := f.set[k]; ok {
		return
	}
	f.queue = append(f.queue, k)
	f.set[k] = struct{}{}
}

// Evict pops and returns the oldest key.
func (f *fifo) Evict() string {
	if len(f.queue) == 0 {
		return ""
	}
	k := f.queue[0]
	// Clear the slot so the backing array does not pin the string.
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.set, k)
	return k
}

/*
Remove is called when a key is explicitly removed from the tier (not because of eviction).

Steps:
------
1. Check if the key is tracked
2. Remove it from the set
3. Remove it from the queue while preserving order
*/
func (f *fifo) Remove(k string) {
	if _, ok := f.set[k]; !ok {
		return
	}

	delete(f.set, k)

	for i, v := range f.queue {
		if v == k {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			break
		}
	}
}

func (f *fifo) Len() int {
	return len(f.queue)
}

func (f *fifo) Reset() {
	f.queue = make([]string, 0)
	f.set = make(map[string]struct{})
}
