package service

import (
	"context"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// PresenceFunc adapts a confirmation callback into a PresenceProvider.
// The UI layer registers one when the platform offers a biometric or
// equivalent user-presence primitive.
type PresenceFunc func(ctx context.Context, reason string) error

// Available always reports true for a registered callback.
func (f PresenceFunc) Available() bool { return f != nil }

// Confirm invokes the callback.
func (f PresenceFunc) Confirm(ctx context.Context, reason string) error {
	if f == nil {
		return nil
	}
	return f(ctx, reason)
}

// noPresence is the fallback when no presence primitive exists.
type noPresence struct{}

func (noPresence) Available() bool { return false }

func (noPresence) Confirm(context.Context, string) error { return nil }

// SelectPresenceProvider probes for a usable presence provider. When required
// is false, or the candidate reports unavailable, the plain pass-through
// provider is returned so the store behaves identically at the interface
// level on hardware without biometric support.
func SelectPresenceProvider(required bool, candidate PresenceProvider) PresenceProvider {
	if !required {
		return noPresence{}
	}
	if candidate != nil && candidate.Available() {
		return candidate
	}
	return noPresence{}
}

// gatedWrapper decorates a KeyWrapper with a presence confirmation before
// every unwrap. Wrapping (storing) stays ungated; only resolution of existing
// material requires the user.
type gatedWrapper struct {
	inner    KeyWrapper
	presence PresenceProvider
}

// GateKeyWrapper returns a KeyWrapper requiring presence confirmation before
// Unwrap. With an unavailable provider the inner wrapper is returned as-is.
func GateKeyWrapper(inner KeyWrapper, presence PresenceProvider) KeyWrapper {
	if presence == nil || !presence.Available() {
		return inner
	}
	return &gatedWrapper{inner: inner, presence: presence}
}

func (g *gatedWrapper) Wrap(ctx context.Context, dataKey []byte) ([]byte, error) {
	return g.inner.Wrap(ctx, dataKey)
}

func (g *gatedWrapper) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	if err := g.presence.Confirm(ctx, "resolve stored credential"); err != nil {
		return nil, vaultDomain.ErrAuthDenied
	}
	return g.inner.Unwrap(ctx, wrapped)
}

func (g *gatedWrapper) Close() error {
	return g.inner.Close()
}
