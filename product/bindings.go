package product

import (
	"time"

	"github.com/meenmo/trsreset/market"
)

// EventKind names what a binding does.
type EventKind string

const (
	EventSeedFixing EventKind = "SEED_FIXING"
	EventReset      EventKind = "RESET"
	EventPayment    EventKind = "PAYMENT"
	EventFixing     EventKind = "FIXING"
)

// Same-date dispatch order. Lower runs first.
const (
	PrioritySeedFixing = iota
	PriorityReset
	PriorityPayment
	PriorityFixing
)

// CallbackArg is the dated event handed to a handler.
type CallbackArg struct {
	Date  time.Time
	Model market.Model
}

// Handler reacts to a dated event.
type Handler func(arg CallbackArg) (Output, error)

// Binding ties a handler to the dates it must run on. Bindings are data: the
// scheduler decides when to call them.
type Binding struct {
	Kind     EventKind
	Dates    []time.Time
	Priority int
	Handler  Handler
}
