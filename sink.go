package binpac

import (
	"sync"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Filter is a stream transformer a sink applies to bytes before
// delivering them to attached parsers (e.g. base64 decode, §4.6).
type Filter interface {
	// Transform consumes input and returns the bytes ready for
	// delivery downstream; it may buffer (return less than it was
	// given) when the underlying codec needs more input to produce a
	// full unit of output.
	Transform(input []byte) ([]byte, error)
	// Close flushes any residual buffered input; a non-empty pending
	// tail is a FilterError (§4.6 resource model).
	Close() error
}

// sinkAttachment is one (parser, parse-object, pending-input,
// suspended-continuation) state (§4.6 Sink).
type sinkAttachment struct {
	cookie       string
	descriptor   *ParserDescriptor
	parseObject  *ParseObject
	pending      []byte // bytes written since the last delivery, §4.6 write()
	consumed     int    // cumulative bytes handed to parse_func_sink so far, passed on as begin_iter
	continuation *Continuation
	terminated   bool
}

// Sink is the runtime fan-out multiplexer (§4.6). Writes are delivered
// to every non-terminated attached parser in attach order; a parser
// whose continuation is nil has completed and further writes to it are
// silently dropped. Re-entrant writes (a hook writing into the sink
// that is currently delivering) are rejected.
//
// Grounded on the teacher's Input-delivery discipline (vm_input.go) for
// "bytes handed to a parser", generalized here to fan out to many
// parsers instead of one; there is no teacher analogue for the
// multiplexing itself.
type Sink struct {
	mu          sync.Mutex
	attachments *orderedmap.OrderedMap[string, *sinkAttachment]
	filters     []Filter
	writing     bool
	strictReentrancy bool
}

func NewSink(cfg *Config) *Sink {
	return &Sink{
		attachments:      orderedmap.New[string, *sinkAttachment](),
		strictReentrancy: cfg.GetBool("sink.strict_reentrancy_check"),
	}
}

// Attach registers a parser descriptor against this sink, minting a
// stable cookie via uuid and invoking the parser's `%new` hook to bind
// a fresh parse object (§4.6 "each attach uses the parser's %new hook
// to create a fresh parse object bound to this sink").
func (s *Sink) Attach(d *ParserDescriptor, mime string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cookie := uuid.NewString()
	var po *ParseObject
	if d.NewFunc != nil {
		var err error
		po, err = d.NewFunc(s, mime)
		if err != nil {
			return "", err
		}
	} else {
		po = NewParseObject(d.UnitName)
	}
	s.attachments.Set(cookie, &sinkAttachment{cookie: cookie, descriptor: d, parseObject: po})
	return cookie, nil
}

// ConnectByMime attaches every parser registered for mimeType's exact,
// major, and wildcard buckets, in that order (§4.6 connect_by_mime,
// testable property #8 MIME closure).
func (s *Sink) ConnectByMime(mimeType string) ([]string, error) {
	descriptors := LookupGlobalMIME(mimeType)
	cookies := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		cookie, err := s.Attach(d, mimeType)
		if err != nil {
			return cookies, err
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}

// Detach freezes the attachment's pending input and resumes it once so
// it sees EOF, then removes it; further writes addressed to its cookie
// are no-ops (§4.6 detach).
func (s *Sink) Detach(cookie string) {
	s.mu.Lock()
	att, ok := s.attachments.Get(cookie)
	s.mu.Unlock()
	if ok && !att.terminated {
		s.deliverOne(att, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments.Delete(cookie)
}

// AddFilter appends f to the filter chain. Filters run in registration
// order over every subsequent Write; filters already applied to past
// writes are not retroactively applied (§4.6 scenario S6: a filter
// added mid-stream only affects writes issued after it).
func (s *Sink) AddFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
}

// Write delivers data to every attached, non-terminated parser in
// attach order, after running it through the filter chain (§4.6
// Ordering & failure isolation; testable property #7 Sink fairness,
// scenario S6). A parser's error does not abort delivery to its
// siblings; a parser's yield (returned as a Yield error) likewise
// doesn't block siblings — it is recorded on the attachment as a
// continuation for a later Resume.
func (s *Sink) Write(data []byte) error {
	s.mu.Lock()
	if s.writing && s.strictReentrancy {
		s.mu.Unlock()
		return FilterError{Filter: "sink"}
	}
	s.writing = true
	filters := append([]Filter(nil), s.filters...)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.writing = false
		s.mu.Unlock()
	}()

	transformed := data
	for _, f := range filters {
		out, err := f.Transform(transformed)
		if err != nil {
			return err
		}
		transformed = out
	}

	s.mu.Lock()
	pairs := s.attachments.Oldest()
	type delivery struct {
		cookie string
		att    *sinkAttachment
	}
	var order []delivery
	for p := pairs; p != nil; p = p.Next() {
		order = append(order, delivery{cookie: p.Key, att: p.Value})
	}
	s.mu.Unlock()

	var firstErr error
	for _, d := range order {
		if d.att.terminated {
			continue
		}
		if err := s.deliverOne(d.att, transformed); err != nil {
			if isYield(err) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// deliverOne appends data to att's pending input and either starts or
// resumes its parse (§4.6 write: "append to its pending input; if this
// is the first write, start parsing it; else resume its stored
// continuation"). The ABI's parse_func_sink reads pending input off the
// parse object/sink state by cookie and begin_iter rather than through
// an explicit bytes parameter, so beginIter marks how much of att's
// accumulated input earlier calls already consumed.
func (s *Sink) deliverOne(att *sinkAttachment, data []byte) error {
	att.pending = append(att.pending, data...)
	if att.descriptor.ParseFuncSink == nil {
		att.pending = nil
		return nil
	}

	beginIter := att.consumed
	po, err := att.descriptor.ParseFuncSink(att.parseObject, beginIter, att.cookie)
	if err != nil {
		if y, ok := err.(Yield); ok {
			att.continuation = y.Continuation
			return err
		}
		att.terminated = true
		att.pending = nil
		return err
	}
	att.parseObject = po
	att.continuation = nil
	att.consumed += len(att.pending)
	att.pending = nil
	att.terminated = true
	return nil
}

// Close flushes every filter, then freezes and resumes each still-open
// attached parser once so it sees EOF, then clears the attachment list
// (§4.6 close). Every filter and every attachment still gets its
// chance to flush/finish even if an earlier one raises; the first
// error encountered is what Close returns (§5 Scoped acquisition).
func (s *Sink) Close() error {
	s.mu.Lock()
	filters := append([]Filter(nil), s.filters...)
	var atts []*sinkAttachment
	for p := s.attachments.Oldest(); p != nil; p = p.Next() {
		atts = append(atts, p.Value)
	}
	s.mu.Unlock()

	var firstErr error
	for _, f := range filters {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, att := range atts {
		if att.terminated {
			continue
		}
		if err := s.deliverOne(att, nil); err != nil && !isYield(err) && firstErr == nil {
			firstErr = err
		}
	}

	s.mu.Lock()
	s.attachments = orderedmap.New[string, *sinkAttachment]()
	s.mu.Unlock()
	return firstErr
}
