// Package pacing spaces out calls to the Instagram API.
//
// Every relationship fetch and every profile lookup is followed by a fixed
// pause. The pauses are advisory: they keep a run from looking like a burst
// and make rate-limit responses less likely, but nothing is retried when one
// happens anyway.
//
// Implementations:
//
//   - FixedDelay pauses for a configured duration after every call
//   - NoDelay never pauses and is meant for tests and dry runs
//
// Both honour context cancellation, so an interrupted run stops promptly
// instead of sleeping out the remaining delay.
//
// Usage:
//
//	pacer := pacing.NewFixedDelay(3 * time.Second)
//
//	followers, err := client.UserFollowers(ctx, id)
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
package pacing
