// Package registry persists the credentials of every known identity.
//
// The registry file is JSON:
//
//	{
//	    "cookies": {
//	        "1234567": "53616c7465645f5f..."
//	    },
//	    "primary": 1234567
//	}
//
// Numeric identities are written as JSON numbers for the primary field so
// that existing files round-trip unchanged. The file holds secrets and is
// written with mode 0600.
package registry
