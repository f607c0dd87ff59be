// SPDX-License-Identifier: MIT

// Package filter implements the milter that injects a synthesized
// Message-ID header into messages that arrive without one.
package filter

import (
	"github.com/d--j/go-milter"
	"github.com/rs/zerolog"

	"github.com/mailtools/addmsgid/internal/log"
	"github.com/mailtools/addmsgid/internal/metrics"
	"github.com/mailtools/addmsgid/internal/msgid"
)

// InjectedHeaderName is the canonical spelling used when adding the header.
const InjectedHeaderName = "Message-ID"

// Negotiation settings handed to the protocol engine at server
// construction. The milter only modifies messages by adding headers, and
// only needs the header and end-of-message phases; everything else is
// suppressed so the MTA does not ship envelope and body data we never
// look at.
const (
	RequiredActions = milter.OptAddHeader

	SuppressedPhases = milter.OptNoConnect |
		milter.OptNoHelo |
		milter.OptNoMailFrom |
		milter.OptNoRcptTo |
		milter.OptNoData |
		milter.OptNoEOH |
		milter.OptNoBody |
		milter.OptNoUnknown
)

// HeaderAdder queues a header to be inserted into the outgoing message.
// Satisfied by the protocol engine's modifier; narrowed here so the
// decision logic can be exercised without a live milter conversation.
type HeaderAdder interface {
	AddHeader(name, value string) error
}

// Filter binds one Session to one MTA connection. The protocol engine
// instantiates one Filter per accepted connection and dispatches its
// callbacks sequentially, mirroring the phases of each mail transaction.
type Filter struct {
	milter.NoOpMilter

	session Session
	gen     *msgid.Generator
	logger  zerolog.Logger
}

var _ milter.Milter = (*Filter)(nil)

// New creates a Filter for a single connection.
func New(gen *msgid.Generator, logger zerolog.Logger) *Filter {
	return &Filter{gen: gen, logger: logger}
}

// NewConnection is called once when the MTA connection is assigned to
// this Filter instance.
func (f *Filter) NewConnection(_ *milter.Modifier) error {
	metrics.IncConnections()
	return nil
}

// Header is called once per header of the current message. The scanner
// only marks presence; it always answers CONTINUE because the semantics
// of accepting early during header review are undefined by the protocol
// and continuing costs nothing.
func (f *Filter) Header(name string, _ string, _ *milter.Modifier) (*milter.Response, error) {
	f.session.ScanHeader(name)
	return milter.RespContinue, nil
}

// EndOfMessage decides the current transaction: if no Message-ID header
// was seen, exactly one synthesized header is queued for injection. The
// session flag is consumed before the injection request so a failed
// modification cannot carry state into the next transaction.
func (f *Filter) EndOfMessage(m *milter.Modifier) (*milter.Response, error) {
	return f.decide(m, m.Macros.Get(milter.MacroQueueId))
}

// decide implements the end-of-message decision against any HeaderAdder.
func (f *Filter) decide(adder HeaderAdder, queueID string) (*milter.Response, error) {
	if f.session.Take() {
		metrics.IncMessage(metrics.OutcomePassed)
		return milter.RespContinue, nil
	}

	id := f.gen.Generate()
	if err := adder.AddHeader(InjectedHeaderName, id); err != nil {
		metrics.IncInjectionError()
		f.logger.Error().
			Err(err).
			Str(log.FieldEvent, "header.inject_failed").
			Str(log.FieldQueueID, queueID).
			Msg("failed to queue Message-ID injection")
		return nil, err
	}

	metrics.IncMessage(metrics.OutcomeInjected)
	metrics.IncHeaderInjected()
	f.logger.Info().
		Str(log.FieldEvent, "header.injected").
		Str(log.FieldQueueID, queueID).
		Str(log.FieldMessageID, id).
		Msg("message without Message-ID received, adding header")
	return milter.RespContinue, nil
}

// Abort is called when the MTA terminates the filter's view of the
// current message early. The next message on this connection must start
// from a clean slate.
func (f *Filter) Abort(_ *milter.Modifier) error {
	metrics.IncAborts()
	f.session.Reset()
	return nil
}

// Cleanup is called after a message is finished or the connection ends.
// Resetting here keeps the instance safe regardless of the engine's
// reuse policy.
func (f *Filter) Cleanup() {
	f.session.Reset()
}
