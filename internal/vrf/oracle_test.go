package vrf

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocalOracleRoundTrip(t *testing.T) {
	ctx := context.Background()
	o := NewLocalOracle([]byte("secret"))

	id := NewRequestID()
	if id == "" || id == NewRequestID() {
		t.Fatal("request ids must be unique and non-empty")
	}
	if err := o.Request(ctx, id, 7); err != nil {
		t.Fatalf("Request: %v", err)
	}

	r1, err := o.Result(ctx, id)
	if err != nil || len(r1) == 0 {
		t.Fatalf("Result: %v", err)
	}
	r2, err := o.Result(ctx, id)
	if err != nil || !bytes.Equal(r1, r2) {
		t.Fatalf("result not stable for the same request")
	}

	// same seed, different request id, different result
	id2 := NewRequestID()
	if err := o.Request(ctx, id2, 7); err != nil {
		t.Fatalf("Request: %v", err)
	}
	r3, _ := o.Result(ctx, id2)
	if bytes.Equal(r1, r3) {
		t.Fatal("distinct requests produced the same randomness")
	}

	if _, err := o.Result(ctx, "never-requested"); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("unknown request = %v", err)
	}
}
