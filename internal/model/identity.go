package model

// Identity is a stable fingerprint of a credential holder.
// It does not change when the holder's credential is rotated.
type Identity string

// NoIdentity is used for pages that carry no user-specific content.
const NoIdentity Identity = ""

// Known reports whether the identity has been resolved.
func (i Identity) Known() bool {
	return i != NoIdentity
}

// Credential is the opaque session secret presented to the remote service.
type Credential string

// String hides the secret so that a credential printed by accident
// (fmt, error messages, logs) does not leak.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "***REDACTED***"
}

// Secret returns the raw credential for use in requests.
func (c Credential) Secret() string {
	return string(c)
}
