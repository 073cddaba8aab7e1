// Package admission decides, for every character-bearing request a
// consumer wants to send to a shared translation service, whether the
// request may proceed now, must wait, or must be rejected.
//
// Two independent constraints apply:
//
//   - a token bucket smooths bursts of outgoing calls (requests/second)
//   - a day-scoped usage ledger enforces a rolling character quota
//     (characters per UTC calendar day)
//
// # Control flow
//
// A caller wanting to send N characters across a batch of items first
// asks Gate.Admit whether the batch fits today's remaining quota. If
// admitted, it paces each network call through Gate.Throttle and reports
// consumed characters back through Gate.RecordUsage after each
// successful call:
//
//	gate, err := admission.New(admission.Config{Store: store})
//	if err != nil { ... }
//
//	decision := gate.Admit(ctx, sizes)
//	if !decision.Allowed {
//	    // surface decision.Reason; retry after gate.TimeUntilReset()
//	}
//	for _, item := range items {
//	    if err := gate.Throttle(ctx); err != nil { ... }
//	    translated, err := translate(item)
//	    if err == nil {
//	        gate.RecordUsage(ctx, int64(len(item)))
//	    }
//	}
//
// # Scope
//
// This is single-consumer, best-effort, cooperative throttling. It does
// not implement server-side enforcement, cannot stop an adversarial
// caller with store-level access, and offers no cross-process
// coordination: two processes sharing a tracking identity race
// last-write-wins on the store.
package admission
