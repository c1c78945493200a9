// Package creds resolves opaque credential references from the inventory
// into usable secrets at invocation time. Secrets never appear in the
// target data model or in any report; a reference that cannot be resolved
// fails with ErrCredentialUnavailable instead.
package creds

import "errors"

// ErrCredentialUnavailable is returned when a credential reference cannot
// be resolved to usable material.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// Credential is resolved secret material for one target.
type Credential struct {
	User       string
	Password   string
	PrivateKey []byte
}

// Resolver maps a credential reference to a Credential.
type Resolver interface {
	Resolve(ref string) (Credential, error)
}

// StaticResolver resolves from a fixed map. Used in tests and for
// pre-resolved material injected by a caller.
type StaticResolver map[string]Credential

// Resolve implements Resolver.
func (s StaticResolver) Resolve(ref string) (Credential, error) {
	c, ok := s[ref]
	if !ok {
		return Credential{}, ErrCredentialUnavailable
	}
	return c, nil
}
