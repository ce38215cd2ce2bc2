// Package remote talks to the puzzle service.
//
// A Client holds the transport settings shared by every credential: base URL,
// User-Agent, body size limit and optional SOCKS5 egress. Client.Session binds
// a credential; every request made through the session carries it as the
// "session" cookie.
//
// Fetcher layers the raw page cache and the rate limiter in front of a
// session: the cache is consulted first, the limiter is awaited only before
// real network requests, and only successful responses are cached.
package remote
