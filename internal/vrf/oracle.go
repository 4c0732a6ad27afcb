// Package vrf integrates the verifiable-randomness oracle. A randomness
// consumer records a PendingRandomnessRequest in the ledger and later
// consumes the oracle result through a plain finalize command, so no
// asynchronous callback machinery is needed.
package vrf

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"

	"github.com/google/uuid"
)

// Oracle requests and serves verifiable random values keyed by request id.
type Oracle interface {
	// Request registers a randomness request and returns once the oracle
	// has accepted it.
	Request(ctx context.Context, requestID string, clientSeed uint8) error
	// Result returns the random value for a previously accepted request.
	Result(ctx context.Context, requestID string) ([]byte, error)
}

// NewRequestID allocates a correlation id for an oracle round trip.
func NewRequestID() string { return uuid.NewString() }

// ErrUnknownRequest is returned for a request id the oracle never accepted.
var ErrUnknownRequest = errors.New("vrf: unknown request id")

// LocalOracle derives results as an HMAC over the request id and client
// seed. It stands in for the external oracle in tests and single-node
// deployments; the derivation is verifiable by anyone holding the secret.
type LocalOracle struct {
	secret   []byte
	accepted map[string]uint8
}

// NewLocalOracle builds an oracle from a shared secret.
func NewLocalOracle(secret []byte) *LocalOracle {
	return &LocalOracle{secret: secret, accepted: make(map[string]uint8)}
}

func (o *LocalOracle) Request(_ context.Context, requestID string, clientSeed uint8) error {
	o.accepted[requestID] = clientSeed
	return nil
}

func (o *LocalOracle) Result(_ context.Context, requestID string) ([]byte, error) {
	seed, ok := o.accepted[requestID]
	if !ok {
		return nil, ErrUnknownRequest
	}
	mac := hmac.New(sha256.New, o.secret)
	mac.Write([]byte(requestID))
	mac.Write([]byte{seed})
	return mac.Sum(nil), nil
}
