package core

import "fmt"

// Event is a named lifecycle trigger.
type Event string

const (
	EventSend       Event = "send"
	EventConfirm    Event = "confirm"
	EventCancel     Event = "cancel"
	EventPayPartial Event = "pay_partial"
	EventPay        Event = "pay"
	EventRemind     Event = "remind"
	EventLapse      Event = "lapse"
)

type transition struct {
	from  Status
	event Event
}

// StateMachine holds the allowed (from, event) → to pairs of one document kind.
type StateMachine struct {
	kind        DocumentKind
	statuses    []Status
	transitions map[transition]Status
}

func newStateMachine(kind DocumentKind, statuses ...Status) *StateMachine {
	return &StateMachine{
		kind:        kind,
		statuses:    statuses,
		transitions: make(map[transition]Status),
	}
}

func (m *StateMachine) allow(event Event, to Status, from ...Status) *StateMachine {
	for _, f := range from {
		m.transitions[transition{from: f, event: event}] = to
	}
	return m
}

// QuoteLifecycle: DRAFT → SENT → CONFIRMED; DRAFT/SENT → CANCELLED.
var QuoteLifecycle = newStateMachine(KindQuote,
	StatusDraft, StatusSent, StatusConfirmed, StatusCancelled,
).
	allow(EventSend, StatusSent, StatusDraft).
	allow(EventConfirm, StatusConfirmed, StatusSent).
	allow(EventCancel, StatusCancelled, StatusDraft, StatusSent)

// OrderLifecycle mirrors the quote: DRAFT → SENT → CONFIRMED, with direct
// confirmation from DRAFT, and cancellation from any non-cancelled status.
var OrderLifecycle = newStateMachine(KindOrder,
	StatusDraft, StatusSent, StatusConfirmed, StatusCancelled,
).
	allow(EventSend, StatusSent, StatusDraft).
	allow(EventConfirm, StatusConfirmed, StatusDraft, StatusSent).
	allow(EventCancel, StatusCancelled, StatusDraft, StatusSent, StatusConfirmed)

// InvoiceLifecycle is the natural invoice flow. Payments and reminders move
// invoices through it; SetInvoiceStatus may step outside it.
// PAID and CANCELLED have no outgoing transitions.
var InvoiceLifecycle = newStateMachine(KindInvoice,
	StatusDraft, StatusSent, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled,
).
	allow(EventSend, StatusSent, StatusDraft).
	allow(EventPayPartial, StatusPartial, StatusDraft, StatusSent, StatusPartial, StatusOverdue).
	allow(EventPay, StatusPaid, StatusDraft, StatusSent, StatusPartial, StatusOverdue).
	allow(EventRemind, StatusOverdue, StatusDraft, StatusSent, StatusPartial, StatusOverdue).
	allow(EventLapse, StatusOverdue, StatusSent, StatusPartial).
	allow(EventCancel, StatusCancelled, StatusDraft, StatusSent, StatusPartial, StatusOverdue)

// Next returns the status reached from `from` by event, or an InvalidStateError.
func (m *StateMachine) Next(id int, from Status, event Event) (Status, error) {
	to, ok := m.transitions[transition{from: from, event: event}]
	if !ok {
		return "", &InvalidStateError{Entity: entityName(m.kind), ID: id, Status: string(from), Op: string(event)}
	}
	return to, nil
}

// Can reports whether event is allowed from `from`.
func (m *StateMachine) Can(from Status, event Event) bool {
	_, ok := m.transitions[transition{from: from, event: event}]
	return ok
}

// EventTo finds an event that moves `from` to `to`.
func (m *StateMachine) EventTo(from, to Status) (Event, bool) {
	for t, target := range m.transitions {
		if t.from == from && target == to {
			return t.event, true
		}
	}
	return "", false
}

// Known reports whether s belongs to the kind's status enum.
func (m *StateMachine) Known(s Status) bool {
	for _, v := range m.statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus validates raw against the kind's status enum.
func (m *StateMachine) ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !m.Known(s) {
		return "", newValidationError("status", fmt.Sprintf("%q is not a valid %s status", raw, entityName(m.kind)))
	}
	return s, nil
}

func entityName(kind DocumentKind) string {
	switch kind {
	case KindQuote:
		return "quote"
	case KindOrder:
		return "order"
	case KindInvoice:
		return "invoice"
	case KindCreditNote:
		return "credit note"
	}
	return string(kind)
}
