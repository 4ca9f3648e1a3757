package binpac

import "testing"

func TestSynchronizerFindsEarliestAnchor(t *testing.T) {
	s := NewSynchronizer()
	anchors := []*Anchor{
		{Kind: AnchorLiteral, Literal: []byte("\r\n")},
		{Kind: AnchorLiteral, Literal: []byte("END")},
	}
	buf := []byte("payload\r\nEND")

	m, err := s.Scan("Record", buf, anchors, SynchronizeAt)
	if err != nil {
		t.Fatalf("Scan returned an error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.start != 7 {
		t.Fatalf("expected the earliest anchor (CRLF at offset 7) to win, got start=%d", m.start)
	}
}

func TestSynchronizerSynchronizeAfterAdvancesPastAnchor(t *testing.T) {
	s := NewSynchronizer()
	anchors := []*Anchor{{Kind: AnchorLiteral, Literal: []byte("\r\n")}}
	buf := []byte("payload\r\nrest")

	m, err := s.Scan("Record", buf, anchors, SynchronizeAfter)
	if err != nil {
		t.Fatal(err)
	}
	if m.start != m.end {
		t.Fatalf("SynchronizeAfter must leave start==end (past the anchor), got start=%d end=%d", m.start, m.end)
	}
	if m.start != 9 {
		t.Fatalf("expected the resume point to be byte 9 (just past \\r\\n), got %d", m.start)
	}
}

func TestSynchronizerNotFoundNotFrozenSuspends(t *testing.T) {
	s := NewSynchronizer()
	anchors := []*Anchor{{Kind: AnchorLiteral, Literal: []byte("\r\n")}}

	m, err := s.Scan("Record", []byte("partial payload"), anchors, SynchronizeAt)
	if err != nil {
		t.Fatalf("expected no error while unfrozen and not found, got %v", err)
	}
	if m != nil {
		t.Fatal("expected a nil match when the anchor hasn't appeared yet and input isn't frozen")
	}
}

func TestSynchronizerNotFoundFrozenIsError(t *testing.T) {
	s := NewSynchronizer()
	s.Freeze()
	anchors := []*Anchor{{Kind: AnchorLiteral, Literal: []byte("\r\n")}}

	_, err := s.Scan("Record", []byte("no anchor here"), anchors, SynchronizeAt)
	if err == nil {
		t.Fatal("expected a SynchronizationError once input is frozen and the anchor was never found")
	}
	if _, ok := err.(SynchronizationError); !ok {
		t.Fatalf("expected a SynchronizationError, got %T", err)
	}
}

func TestSynchronizerEmbeddedObjectAndMarkAnchors(t *testing.T) {
	s := NewSynchronizer()
	anchors := []*Anchor{
		{Kind: AnchorEmbeddedObject, ObjectType: "Header"},
		{Kind: AnchorMark, MarkName: "checkpoint"},
	}
	buf := []byte("junk%%checkpoint%%more")

	m, err := s.Scan("Record", buf, anchors, SynchronizeAt)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.anchor.Kind != AnchorMark {
		t.Fatalf("expected the mark anchor to match, got %+v", m)
	}
}
