// Package executor defines the contract against the external execution
// service and its REST adapter. The engine treats this service as an opaque
// collaborator: it simulates, signs and broadcasts; we decide and record.
package executor

import (
	"context"

	"snatcher/internal/types"
)

// SimResult is the outcome of a pre-submission simulation.
type SimResult struct {
	OK             bool    `json:"ok"`
	ExpectedOutput float64 `json:"expectedOutput"`
	PriceImpact    float64 `json:"priceImpact"`
	Error          string  `json:"error,omitempty"`
}

// SubmitResult reports a broadcast attempt. Confirmed=false is a normal
// return value, not an error: callers must check it explicitly.
type SubmitResult struct {
	Signature string  `json:"signature"`
	Confirmed bool    `json:"confirmed"`
	FillQty   float64 `json:"fillQty"`
	FillPrice float64 `json:"fillPrice"`
	Error     string  `json:"error,omitempty"`
}

// Executor is the execution gateway the engine drives. Each operation
// carries its own timeout inside the implementation.
type Executor interface {
	// Simulate dry-runs an intent. A declined simulation comes back as
	// SimResult.OK=false, not as an error.
	Simulate(ctx context.Context, intent types.TradeIntent) (SimResult, error)

	// PreSign builds and signs the transaction for an intent. Failure is
	// fatal to the current attempt only.
	PreSign(ctx context.Context, accountID string, intent types.TradeIntent) (string, error)

	// Submit broadcasts a signed payload and waits for confirmation.
	Submit(ctx context.Context, signedPayload string) (SubmitResult, error)

	// Balance is advisory input to sizing: it returns 0 on any failure
	// instead of propagating the error.
	Balance(ctx context.Context, accountID string) float64

	// SetBusy mirrors the engine's busy flag to the execution service.
	// Best-effort: failures are logged by the implementation and ignored,
	// the engine's in-memory state stays authoritative.
	SetBusy(ctx context.Context, accountID string, busy bool)
}
