// Package ratelimit paces outbound requests to the remote service.
//
// A Limiter grants one turn at a time. After every granted turn the interval
// until the next turn is drawn again from a Jitter distribution, so requests
// arrive at an irregular, human-like pace instead of a fixed beat.
//
// Limiters are per crawl session (one per credential). Identities crawled one
// after another each get their own pacing state.
//
// # Usage
//
//	limiter := ratelimit.New(ratelimit.GaussianJitter(10*time.Second, 2*time.Second, time.Second, 0))
//	if err := limiter.AwaitTurn(ctx); err != nil {
//	    return err
//	}
package ratelimit
