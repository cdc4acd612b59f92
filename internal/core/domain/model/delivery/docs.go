// Package delivery contains the Delivery aggregate owned by the delivery ledger.
//
// A Delivery moves through a closed state machine:
//
//	pending ──> assigned ──> picked_up ──> in_transit ──> [delivered]
//	   ^           │                                  └──> [failed]
//	   └───────────┘ (release, only before pickup)
//
//	any non-terminal state ──> [cancelled]
//
// Terminal states (in brackets) are immutable. Every status change is checked
// against the transition table in status.go; an illegal request returns an
// InvalidTransitionError and leaves the aggregate untouched.
package delivery
