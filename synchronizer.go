package binpac

import (
	"bytes"
	"context"
	"regexp"

	"golang.org/x/sync/errgroup"
)

// AnchorKind discriminates the four resync anchor kinds a
// `&synchronize` field/unit can name (§4.5).
type AnchorKind int

const (
	AnchorLiteral AnchorKind = iota
	AnchorRegexp
	AnchorEmbeddedObject
	AnchorMark
)

// Anchor is one candidate resync target.
type Anchor struct {
	Kind    AnchorKind
	Literal []byte
	Regexp  *regexp.Regexp
	// ObjectType names the declared type an embedded-object anchor
	// scans for.
	ObjectType string
	// MarkName is the user-placed mark an AnchorMark scan looks for.
	MarkName string
}

// SyncPolicy selects whether a resync leaves the iterator at the
// anchor or past it (§4.5).
type SyncPolicy int

const (
	SynchronizeAt SyncPolicy = iota
	SynchronizeAfter
)

// anchorMatch is one candidate hit, comparable by start offset so the
// earliest match across anchor kinds wins.
type anchorMatch struct {
	anchor *Anchor
	start  int
	end    int
}

// Synchronizer scans a growing input buffer for the earliest matching
// anchor across every declared kind, using one goroutine per declared
// anchor (§4.5 [ADD]: concurrent anchor-kind scan) since regexp, literal,
// embedded-object, and mark scans touch disjoint state and searching
// them concurrently doesn't change the observable "earliest match"
// result — only how fast it's found.
//
// Grounded on no single teacher file (the teacher has no resync
// analogue); the errgroup fan-out/collect shape is the one generic
// piece borrowed from the Tangerg-lynx stack's use of errgroup for
// independent parallel lookups.
type Synchronizer struct {
	frozen bool
}

func NewSynchronizer() *Synchronizer { return &Synchronizer{} }

// Freeze marks the input as closed: no more bytes will ever arrive, so
// a failed scan becomes a non-recoverable SynchronizationError instead
// of a suspend-and-retry (§4.5).
func (s *Synchronizer) Freeze() { s.frozen = true }

// Scan searches buf for the earliest match among anchors. It returns
// (nil, nil) to signal "not found yet, not frozen either" (caller
// should suspend and retry once more data arrives); returns a
// SynchronizationError if not found and the input is frozen.
func (s *Synchronizer) Scan(unit string, buf []byte, anchors []*Anchor, policy SyncPolicy) (*anchorMatch, error) {
	if len(anchors) == 0 {
		return nil, nil
	}

	g, _ := errgroup.WithContext(context.Background())
	matches := make([]*anchorMatch, len(anchors))

	for i, a := range anchors {
		i, a := i, a
		g.Go(func() error {
			matches[i] = scanOne(buf, a)
			return nil
		})
	}
	_ = g.Wait() // scanOne never returns an error; Wait just joins.

	var best *anchorMatch
	for _, m := range matches {
		if m == nil {
			continue
		}
		if best == nil || m.start < best.start {
			best = m
		}
	}

	if best == nil {
		if s.frozen {
			return nil, SynchronizationError{Unit: unit, Anchor: describeAnchors(anchors)}
		}
		return nil, nil
	}

	if policy == SynchronizeAfter {
		best.start = best.end
	}
	return best, nil
}

func scanOne(buf []byte, a *Anchor) *anchorMatch {
	switch a.Kind {
	case AnchorLiteral:
		idx := bytes.Index(buf, a.Literal)
		if idx < 0 {
			return nil
		}
		return &anchorMatch{anchor: a, start: idx, end: idx + len(a.Literal)}

	case AnchorRegexp:
		if a.Regexp == nil {
			return nil
		}
		loc := a.Regexp.FindIndex(buf)
		if loc == nil {
			return nil
		}
		return &anchorMatch{anchor: a, start: loc[0], end: loc[1]}

	case AnchorEmbeddedObject:
		marker := []byte("<<" + a.ObjectType + ">>")
		idx := bytes.Index(buf, marker)
		if idx < 0 {
			return nil
		}
		return &anchorMatch{anchor: a, start: idx, end: idx + len(marker)}

	case AnchorMark:
		marker := []byte("%%" + a.MarkName + "%%")
		idx := bytes.Index(buf, marker)
		if idx < 0 {
			return nil
		}
		return &anchorMatch{anchor: a, start: idx, end: idx + len(marker)}

	default:
		return nil
	}
}

func describeAnchors(anchors []*Anchor) string {
	if len(anchors) == 0 {
		return "<none>"
	}
	switch anchors[0].Kind {
	case AnchorLiteral:
		return string(anchors[0].Literal)
	case AnchorRegexp:
		return anchors[0].Regexp.String()
	case AnchorEmbeddedObject:
		return anchors[0].ObjectType
	case AnchorMark:
		return anchors[0].MarkName
	default:
		return "<unknown>"
	}
}
