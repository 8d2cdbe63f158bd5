// This file defines the idea of a "warm hook".
// The hook lets the cache do something extra WHEN a lookup misses.
// The goal is: "render from the origin now, serve from the cache next time".

package warm

import "context"

/*
Hook is the interface for miss behavior.
If a warm hook is configured, it is called every time a lookup finds no live
entry in either tier. A typical hook schedules a background population of the key.

The cache itself does NOT care what the hook does.
It just calls OnMiss and moves on.
*/
type Hook interface {

	/*
		OnMiss is called after a lookup missed.
		This method MUST be fast and non blocking because it runs on the read path.
		Blocking here would slow down every cache miss.
	*/
	OnMiss(key string)
}

// HookFunc adapts a plain function to Hook.
type HookFunc func(key string)

func (f HookFunc) OnMiss(key string) { f(key) }

type suppressKey struct{}

// Suppress returns a context whose misses must not fire the warm hook.
// Population code uses it so that its own cache checks do not schedule
// another population of the key they are about to load.
func Suppress(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey{}, true)
}

// Suppressed reports whether ctx was produced by Suppress.
func Suppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressKey{}).(bool)
	return v
}
