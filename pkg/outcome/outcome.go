// Package outcome defines the status scale and message list reported by every
// conversion step.
package outcome

import "fmt"

// Status is the outcome of a conversion, ordered from best to worst.
// Merging two statuses always keeps the worse one.
type Status int

// Status constants. The numeric values match the wire contract of the
// conversion report and must not change.
const (
	// Aborted means the output is meaningless (structural failure during a step).
	Aborted Status = -2
	// Loss means some element was dropped or approximated.
	Loss Status = -1
	// Warning means a best-effort substitution was made.
	Warning Status = 0
	// Success means the conversion was clean.
	Success Status = 1
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Loss:
		return "loss"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	return s >= Aborted && s <= Success
}

// Trusted reports whether the result can be used at face value.
func (s Status) Trusted() bool {
	return s >= Warning
}

// Worse returns the worse of two statuses. It is commutative and
// associative, so merge order never changes the aggregate.
func Worse(a, b Status) Status {
	if b < a {
		return b
	}
	return a
}

// Context is anything a message can be attached to.
type Context interface {
	ContextID() string
}

// ID is a caller-supplied context identifier.
type ID string

// ContextID implements Context.
func (id ID) ContextID() string {
	return string(id)
}

// Message is a single conversion note.
type Message struct {
	// CtxID identifies the element under discussion (an item linkId, a
	// document id, or a caller string).
	CtxID string `json:"ctxId"`

	// Status is the severity of this note.
	Status Status `json:"status"`

	// Text is the human readable description.
	Text string `json:"text"`

	// MessageID is the catalog identifier when built from a template.
	MessageID string `json:"messageId,omitempty"`
}

// String returns "<status> [<ctx>] <text>".
func (m Message) String() string {
	return fmt.Sprintf("%s [%s] %s", m.Status, m.CtxID, m.Text)
}

// NewMessage creates a message for the given context.
func NewMessage(ctx Context, status Status, text string) Message {
	id := ""
	if ctx != nil {
		id = ctx.ContextID()
	}
	return Message{CtxID: id, Status: status, Text: text}
}

// Newf creates a message with a formatted text.
func Newf(ctx Context, status Status, format string, args ...any) Message {
	return NewMessage(ctx, status, fmt.Sprintf(format, args...))
}

// Report aggregates a status and an append-only list of messages.
// The zero value is not ready for use; call NewReport.
type Report struct {
	Status   Status    `json:"status"`
	Messages []Message `json:"message,omitempty"`
}

// NewReport returns a report starting at Success.
func NewReport() Report {
	return Report{Status: Success}
}

// Merge folds status and messages into the report and returns it.
// Each message also drags the report status down to its own level.
func (r *Report) Merge(status Status, msgs ...Message) *Report {
	r.Status = Worse(r.Status, status)
	for _, m := range msgs {
		r.Status = Worse(r.Status, m.Status)
	}
	r.Messages = append(r.Messages, msgs...)
	return r
}

// Add records one message at its own status.
func (r *Report) Add(msg Message) *Report {
	return r.Merge(msg.Status, msg)
}

// Absorb merges another report into this one.
func (r *Report) Absorb(other Report) *Report {
	return r.Merge(other.Status, other.Messages...)
}

// Count returns how many messages have the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, m := range r.Messages {
		if m.Status == status {
			n++
		}
	}
	return n
}

// For returns the messages whose context is ctxID.
func (r *Report) For(ctxID string) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.CtxID == ctxID {
			out = append(out, m)
		}
	}
	return out
}
