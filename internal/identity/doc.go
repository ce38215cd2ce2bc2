// Package identity derives a stable fingerprint for a credential holder.
//
// The fingerprint must not change when the credential is rotated, so it is
// read from something the service says about the account rather than from
// the credential itself. Two strategies exist: ProfilePage parses the
// anonymous user number from the settings page, FixedResponse hashes a page
// whose content is fixed per account.
//
// Resolutions are memoized per credential in a Cache injected into the
// Resolver; the default is an in-memory cache that lives as long as the
// Resolver does.
package identity
