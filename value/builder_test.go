package value

import (
	"testing"

	"github.com/streamdecode/jsonstream/token"
)

func ev(typ token.Type, text string) token.Event {
	return token.Event{Type: typ, Text: text}
}

// feed drives a fresh Builder through a fixed sequence of events and
// returns, for each, whether it yielded.
func feed(t *testing.T, b *Builder, events []token.Event) []bool {
	t.Helper()
	yields := make([]bool, len(events))
	for i, e := range events {
		yielded, err := b.Advance(e)
		if err != nil {
			t.Fatalf("event %d (%s): unexpected error: %s", i, e, err)
		}
		yields[i] = yielded
	}
	return yields
}

func TestArrayOfNumbersYieldSequence(t *testing.T) {
	b := NewBuilder()
	events := []token.Event{
		ev(token.StartArray, ""),
		ev(token.NumberChunk, "1"),
		ev(token.NumberEnd, ""),
		ev(token.Comma, ""),
		ev(token.NumberChunk, "2"),
		ev(token.NumberEnd, ""),
		ev(token.EndArray, ""),
		ev(token.EOF, ""),
	}
	yields := feed(t, b, events)
	want := []bool{true, true, false, false, true, false, true, false}
	for i := range want {
		if yields[i] != want[i] {
			t.Fatalf("event %d: yielded=%v, want %v", i, yields[i], want[i])
		}
	}
	if got := b.Root().JSON(); got != "[1,2]" {
		t.Fatalf("final value %s, want [1,2]", got)
	}
}

func TestObjectKeyStringChunkNeverYields(t *testing.T) {
	b := NewBuilder()
	events := []token.Event{
		ev(token.StartObject, ""),
		ev(token.StringStart, ""), // key
		ev(token.StringChunk, "a"),
		ev(token.StringEnd, ""),
		ev(token.Colon, ""),
		ev(token.StringStart, ""), // value
		ev(token.StringChunk, "hi"),
		ev(token.StringEnd, ""),
		ev(token.EndObject, ""),
		ev(token.EOF, ""),
	}
	yields := feed(t, b, events)
	// StartObject, key StringStart/Chunk/End, Colon -> no yield for any of those
	want := []bool{true, false, false, false, false, false, true, true, true, false}
	for i := range want {
		if yields[i] != want[i] {
			t.Fatalf("event %d (%s): yielded=%v, want %v", i, events[i], yields[i], want[i])
		}
	}
	if got := b.Root().JSON(); got != `{"a":"hi"}` {
		t.Fatalf("final value %s", got)
	}
}

func TestDuplicateKeyOverwritesInPlacePreservingPosition(t *testing.T) {
	b := NewBuilder()
	events := []token.Event{
		ev(token.StartObject, ""),
		ev(token.StringStart, ""), ev(token.StringChunk, "a"), ev(token.StringEnd, ""),
		ev(token.Colon, ""),
		ev(token.NumberChunk, "1"), ev(token.NumberEnd, ""),
		ev(token.Comma, ""),
		ev(token.StringStart, ""), ev(token.StringChunk, "b"), ev(token.StringEnd, ""),
		ev(token.Colon, ""),
		ev(token.NumberChunk, "2"), ev(token.NumberEnd, ""),
		ev(token.Comma, ""),
		ev(token.StringStart, ""), ev(token.StringChunk, "a"), ev(token.StringEnd, ""),
		ev(token.Colon, ""),
		ev(token.NumberChunk, "3"), ev(token.NumberEnd, ""),
		ev(token.EndObject, ""),
		ev(token.EOF, ""),
	}
	feed(t, b, events)
	root := b.Root()
	if root.Object().Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", root.Object().Len())
	}
	k0, v0 := root.Object().At(0)
	if k0 != "a" || v0.Number() != 3 {
		t.Fatalf("expected first entry a=3 (overwritten in place), got %s=%v", k0, v0.Number())
	}
	k1, v1 := root.Object().At(1)
	if k1 != "b" || v1.Number() != 2 {
		t.Fatalf("expected second entry b=2, got %s=%v", k1, v1.Number())
	}
}

func TestRejectDuplicateKeysOption(t *testing.T) {
	b := NewBuilder(WithRejectDuplicateKeys())
	events := []token.Event{
		ev(token.StartObject, ""),
		ev(token.StringStart, ""), ev(token.StringChunk, "a"), ev(token.StringEnd, ""),
		ev(token.Colon, ""),
		ev(token.NumberChunk, "1"), ev(token.NumberEnd, ""),
		ev(token.Comma, ""),
		ev(token.StringStart, ""), ev(token.StringChunk, "a"), ev(token.StringEnd, ""),
	}
	for i, e := range events[:len(events)-1] {
		if _, err := b.Advance(e); err != nil {
			t.Fatalf("event %d: unexpected error: %s", i, err)
		}
	}
	last := events[len(events)-1]
	if _, err := b.Advance(last); err != nil {
		t.Fatalf("unexpected error stashing the duplicate key: %s", err)
	}
	if _, err := b.Advance(ev(token.Colon, "")); err == nil {
		t.Fatalf("expected an error for a duplicate key with WithRejectDuplicateKeys")
	}
}

func TestNumberChunkSuppressedWhenValueUnchanged(t *testing.T) {
	b := NewBuilder()
	// "1" -> 1.0; then "." makes "1.", which strconv.ParseFloat reads as
	// 1, no change; then "0" makes "1.0", which parses to the same float64
	// as before: still no observable change, so no yield.
	yielded, err := b.Advance(ev(token.NumberChunk, "1"))
	if err != nil || !yielded {
		t.Fatalf("expected the first digit to yield, got yielded=%v err=%v", yielded, err)
	}
	yielded, err = b.Advance(ev(token.NumberChunk, "."))
	if err != nil || yielded {
		t.Fatalf("expected '.' alone to not yield, got yielded=%v err=%v", yielded, err)
	}
	yielded, err = b.Advance(ev(token.NumberChunk, "0"))
	if err != nil || yielded {
		t.Fatalf("expected '1.0' (same float as 1) to not yield, got yielded=%v err=%v", yielded, err)
	}
	if b.Root().Number() != 1 {
		t.Fatalf("expected committed value 1, got %v", b.Root().Number())
	}
}

func TestTopLevelZeroStillYields(t *testing.T) {
	for _, text := range []string{"0", "-0"} {
		t.Run(text, func(t *testing.T) {
			b := NewBuilder()
			yielded, err := b.Advance(ev(token.NumberChunk, text))
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if !yielded {
				t.Fatalf("expected the first committed digit(s) of a zero-valued number to yield")
			}
			if b.Root() == nil || b.Root().Number() != 0 {
				t.Fatalf("expected a root value of 0")
			}
		})
	}
}

func TestNumberNeverRegressesOnPartialSign(t *testing.T) {
	b := NewBuilder()
	yielded, err := b.Advance(ev(token.NumberChunk, "-"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if yielded {
		t.Fatalf("a lone '-' must not yield a spurious value")
	}
	if b.Root() != nil {
		// Root is allocated on the first chunk even if unparseable yet,
		// but its numeric value must still read as the zero value.
		if b.Root().Number() != 0 {
			t.Fatalf("expected committed value 0 while only '-' has arrived, got %v", b.Root().Number())
		}
	}
}

func TestMismatchedCloseIsRejected(t *testing.T) {
	b := NewBuilder()
	if _, err := b.Advance(ev(token.StartArray, "")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := b.Advance(ev(token.EndObject, "")); err == nil {
		t.Fatalf("expected an error for ']' closed with '}'")
	}
}

func TestMaxDepthExceeded(t *testing.T) {
	b := NewBuilder(WithMaxDepth(2))
	if _, err := b.Advance(ev(token.StartArray, "")); err != nil {
		t.Fatalf("unexpected error at depth 1: %s", err)
	}
	if _, err := b.Advance(ev(token.StartArray, "")); err != nil {
		t.Fatalf("unexpected error at depth 2: %s", err)
	}
	if _, err := b.Advance(ev(token.StartArray, "")); err == nil {
		t.Fatalf("expected an error exceeding max depth 2")
	}
}

func TestUnclosedContainerAtEOFIsRejected(t *testing.T) {
	b := NewBuilder()
	if _, err := b.Advance(ev(token.StartArray, "")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := b.Advance(ev(token.EOF, "")); err == nil {
		t.Fatalf("expected an unclosed-container error at EOF")
	}
}

func TestNestedArrayIdentityIsStableAcrossYields(t *testing.T) {
	b := NewBuilder()
	feed(t, b, []token.Event{
		ev(token.StartArray, ""),
		ev(token.StartArray, ""),
	})
	inner := b.Root().Array()[0]
	feed(t, b, []token.Event{
		ev(token.NumberChunk, "7"),
		ev(token.NumberEnd, ""),
		ev(token.EndArray, ""),
	})
	if inner.Kind() != Array || len(inner.Array()) != 1 || inner.Array()[0].Number() != 7 {
		t.Fatalf("expected the same inner array pointer to have grown in place, got %s", inner.JSON())
	}
}
