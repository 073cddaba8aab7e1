// Package identity resolves the tracking identity daily usage is
// accounted under.
//
// Two forms exist: a device-scoped identity for anonymous consumers, and
// a pseudonymous identity derived one-way from a caller-supplied token.
// Resolution runs once per consumer session; the ledger only ever sees
// the resulting opaque key.
package identity

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

// Kind distinguishes how a tracking identity was obtained.
type Kind string

const (
	// KindDevice is the anonymous, device-scoped identity.
	KindDevice Kind = "device"

	// KindUser is a pseudonymous identity derived from a caller token.
	KindUser Kind = "user"
)

// deviceIDKey is where the generated device identifier persists.
const deviceIDKey = "identity/device-id"

// fallbackDeviceID is the device identity of last resort, used when the
// store cannot persist a generated identifier.
const fallbackDeviceID = "device-local"

// ErrUnavailable is returned by a TokenSource that has no token to
// offer. It triggers the documented device fallback and is never
// surfaced to the consumer.
var ErrUnavailable = errors.New("identity token unavailable")

// TokenSource supplies an opaque caller token, when one exists.
type TokenSource interface {
	// Token returns the caller token, or ErrUnavailable.
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. An empty token reports
// unavailable.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrUnavailable
	}
	return string(s), nil
}

// EnvTokenSource reads the token from an environment variable.
type EnvTokenSource string

// Token implements TokenSource.
func (e EnvTokenSource) Token(ctx context.Context) (string, error) {
	value := os.Getenv(string(e))
	if value == "" {
		return "", ErrUnavailable
	}
	return value, nil
}

// Identity is a resolved tracking identity.
type Identity struct {
	// Key is the opaque string the ledger accounts under.
	Key string

	// Kind records how the identity was obtained.
	Kind Kind

	// Degraded is true when the key was derived with a
	// non-cryptographic transform.
	Degraded bool
}

// Resolver decides which tracking identity a ledger should use, with
// graceful degradation: token-derived when a token is available, the
// persisted device identity otherwise.
type Resolver struct {
	source    TokenSource
	transform Transform
	store     storage.Store
	logger    *logging.Logger
}

// NewResolver creates a Resolver. source may be nil for device-only
// consumers; transform defaults to SHA-256.
func NewResolver(source TokenSource, transform Transform, store storage.Store, logger *logging.Logger) *Resolver {
	if transform == nil {
		transform = SHA256Transform{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{
		source:    source,
		transform: transform,
		store:     store,
		logger:    logger.With("component", "identity"),
	}
}

// Resolve determines the tracking identity for this session.
//
// A caller token, when obtainable, yields a pseudonymous user identity.
// An unavailable token is not an error; it falls back to the device
// identity, as does a failed derivation.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	if r.source != nil {
		token, err := r.source.Token(ctx)
		switch {
		case err == nil:
			key, derr := r.transform.Derive(token)
			if derr == nil {
				if !r.transform.Strong() {
					r.logger.Warn("identity derived with non-cryptographic transform, pseudonymity degraded")
				}
				return Identity{
					Key:      "user:" + key,
					Kind:     KindUser,
					Degraded: !r.transform.Strong(),
				}
			}
			r.logger.Warn("identity derivation failed, falling back to device identity",
				"error", derr.Error())
		case errors.Is(err, ErrUnavailable):
			r.logger.Debug("no identity token available, using device identity")
		default:
			r.logger.Warn("identity token lookup failed, using device identity",
				"error", err.Error())
		}
	}

	return Identity{
		Key:  r.deviceID(ctx),
		Kind: KindDevice,
	}
}

// deviceID returns the persisted device identifier, generating and
// storing one on first use. If the store cannot hold it, the constant
// fallback keeps accounting functional for this process.
func (r *Resolver) deviceID(ctx context.Context) string {
	if r.store == nil {
		return fallbackDeviceID
	}

	data, ok, err := r.store.Get(ctx, deviceIDKey)
	if err == nil && ok && len(data) > 0 {
		return string(data)
	}
	if err != nil {
		r.logger.Warn("device identifier read failed", "error", err.Error())
	}

	id := "device:" + uuid.NewString()
	if err := r.store.Set(ctx, deviceIDKey, []byte(id)); err != nil {
		r.logger.Warn("device identifier write failed, using local fallback",
			"error", err.Error())
		return fallbackDeviceID
	}
	return id
}
