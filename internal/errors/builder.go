package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// safeDetailPrefix tags JSON payloads carried through cockroachdb's safe
// detail channel so the HTTP layer can recover them structurally.
const safeDetailPrefix = "__json__:"

// ErrorBuilder assembles an error fluently. It intentionally does not
// implement the error interface; finish every chain with Mark.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder chain from a fresh message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain wrapping an existing error
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prepends internal context, kept out of caller responses
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches the caller-facing rejection message
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to surface to the
// caller. Details that fail to marshal are silently dropped; the hint still
// carries the message.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	payload, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, safeDetailPrefix+"%s", errors.Safe(string(payload)))
	return b
}

// Mark classifies the error against one of the package sentinels and ends
// the chain.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err = errors.Mark(b.err, sentinel)
	return b.err
}

// Error returns the accumulated error without marking it
func (b *ErrorBuilder) Error() error {
	return b.err
}
