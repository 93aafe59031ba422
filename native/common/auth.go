package common

import "encoding/hex"

// Authorizer is the proof-of-authority oracle injected into every engine.
// RequireAuth fails the whole operation when the current caller cannot prove
// authority as the given principal; implementations must have no partial
// effect. The ledger core never retries a failed authorization.
type Authorizer interface {
	RequireAuth(principal [20]byte) error
}

// StaticAuthorizer authorizes a fixed set of principals. It suits
// single-operator deployments where the host process itself is the only
// caller; multi-tenant hosts supply their own signature-backed Authorizer.
type StaticAuthorizer struct {
	allowed map[[20]byte]struct{}
}

// NewStaticAuthorizer builds an authorizer for the supplied principals.
func NewStaticAuthorizer(principals ...[20]byte) *StaticAuthorizer {
	allowed := make(map[[20]byte]struct{}, len(principals))
	for _, p := range principals {
		allowed[p] = struct{}{}
	}
	return &StaticAuthorizer{allowed: allowed}
}

// RequireAuth implements the Authorizer interface.
func (a *StaticAuthorizer) RequireAuth(principal [20]byte) error {
	if a == nil {
		return Authorizationf("authorizer not configured")
	}
	if _, ok := a.allowed[principal]; !ok {
		return Authorizationf("principal %s not authorized", hex.EncodeToString(principal[:]))
	}
	return nil
}
