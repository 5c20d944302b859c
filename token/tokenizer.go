package token

import (
	"github.com/streamdecode/jsonstream/internal/chunksource"
	"github.com/streamdecode/jsonstream/streamerr"
)

// Tokenizer is a flat finite-state machine that turns a pull sequence of
// runes, supplied via a *chunksource.Source, into a pull sequence of
// Events. It never buffers an entire string or number: every accepted
// character produces at most one Event, so Advance can be called after
// any number of fed bytes and will resume exactly where it left off.
//
// Advance pulls runes until either an Event is ready (Advance returns
// true and Event reports it), the source needs more input (Advance
// returns false and Err is nil), or a fatal error is detected (Advance
// returns false and Err is non-nil).
type Tokenizer struct {
	source *chunksource.Source

	state state
	ctx   []ctxKind

	rootStarted bool
	stringIsKey bool

	event Event
	err   error

	hasPending   bool
	pendingRune  rune
	pendingOffs  int64

	// string escape state
	hexAcc              uint16
	hexPos              int
	highSurrogate       rune
	awaitingLowSurrogate bool

	// number sub-state
	numSub numSub

	// literal match state
	litExpected string
	litPos      int
	litType     Type
}

type state uint8

const (
	sExpectValue state = iota
	sExpectKey
	sExpectColon
	sAfterValue
	sInString
	sInStringEscape
	sInUnicodeEscape
	sAwaitLowSurrogateEscape
	sAwaitLowSurrogateU
	sInNumber
	sInLiteral
	sDone
)

type ctxKind uint8

const (
	ctxArray ctxKind = iota
	ctxObject
)

type numSub uint8

const (
	numSign numSub = iota
	numIntZero
	numIntNonZero
	numFracStart
	numFrac
	numExpStart
	numExpSign
	numExpDigits
)

// New returns a Tokenizer that reads runes from source.
func New(source *chunksource.Source) *Tokenizer {
	return &Tokenizer{source: source, state: sExpectValue}
}

// Event returns the event produced by the most recent call to Advance
// that returned true.
func (t *Tokenizer) Event() Event { return t.event }

// Err returns the fatal error that stopped the stream, or nil if none
// has occurred.
func (t *Tokenizer) Err() error { return t.err }

// Done reports whether the EOF event has already been produced.
func (t *Tokenizer) Done() bool { return t.state == sDone }

// Advance drives the state machine forward. See the Tokenizer doc comment
// for the three possible outcomes.
func (t *Tokenizer) Advance() bool {
	if t.err != nil || t.state == sDone {
		return false
	}
	for {
		var r rune
		var offset int64
		if t.hasPending {
			r, offset = t.pendingRune, t.pendingOffs
			t.hasPending = false
		} else {
			rr, outcome, off, err := t.source.NextRune()
			if err != nil {
				return t.fail(streamerr.Encodingf(off, "%s", err))
			}
			switch outcome {
			case chunksource.NeedMore:
				return false
			case chunksource.EOF:
				return t.handleEOF(off)
			}
			r, offset = rr, off
		}
		if t.step(r, offset) {
			return true
		}
		if t.err != nil {
			return false
		}
	}
}

func (t *Tokenizer) step(r rune, offset int64) bool {
	switch t.state {
	case sExpectValue:
		return t.stepExpectValue(r, offset)
	case sExpectKey:
		return t.stepExpectKey(r, offset)
	case sExpectColon:
		return t.stepExpectColon(r, offset)
	case sAfterValue:
		return t.stepAfterValue(r, offset)
	case sInString:
		return t.stepInString(r, offset)
	case sInStringEscape:
		return t.stepInStringEscape(r, offset)
	case sInUnicodeEscape:
		return t.stepInUnicodeEscape(r, offset)
	case sAwaitLowSurrogateEscape:
		return t.stepAwaitLowSurrogateEscape(r, offset)
	case sAwaitLowSurrogateU:
		return t.stepAwaitLowSurrogateU(r, offset)
	case sInNumber:
		return t.stepInNumber(r, offset)
	case sInLiteral:
		return t.stepInLiteral(r, offset)
	default:
		panic("token: step called in a terminal state")
	}
}

func (t *Tokenizer) stepExpectValue(r rune, offset int64) bool {
	if isSpace(r) {
		return false
	}
	t.rootStarted = true
	switch {
	case r == '{':
		t.ctx = append(t.ctx, ctxObject)
		t.state = sExpectKey
		return t.emit(StartObject, "", offset)
	case r == '[':
		t.ctx = append(t.ctx, ctxArray)
		t.state = sExpectValue
		return t.emit(StartArray, "", offset)
	case r == ']':
		// Only valid directly after '[' (an empty array); after ',' or at
		// the top level it is a stray close.
		if len(t.ctx) == 0 || t.ctx[len(t.ctx)-1] != ctxArray || t.event.Type != StartArray {
			return t.fail(streamerr.Structuralf(offset, "unexpected ']', expected a value"))
		}
		t.ctx = t.ctx[:len(t.ctx)-1]
		t.state = sAfterValue
		return t.emit(EndArray, "", offset)
	case r == '"':
		t.stringIsKey = false
		t.state = sInString
		return t.emit(StringStart, "", offset)
	case r == '-' || isDigit(r):
		return t.startNumber(r, offset)
	case r == 't':
		return t.startLiteral("rue", LiteralTrue, offset)
	case r == 'f':
		return t.startLiteral("alse", LiteralFalse, offset)
	case r == 'n':
		return t.startLiteral("ull", LiteralNull, offset)
	default:
		return t.fail(streamerr.Lexicalf(offset, "unexpected character %q", r))
	}
}

func (t *Tokenizer) stepExpectKey(r rune, offset int64) bool {
	if isSpace(r) {
		return false
	}
	switch r {
	case '"':
		t.stringIsKey = true
		t.state = sInString
		return t.emit(StringStart, "", offset)
	case '}':
		t.ctx = t.ctx[:len(t.ctx)-1]
		t.state = sAfterValue
		return t.emit(EndObject, "", offset)
	default:
		return t.fail(streamerr.Structuralf(offset, "expected '\"' or '}', got %q", r))
	}
}

func (t *Tokenizer) stepExpectColon(r rune, offset int64) bool {
	if isSpace(r) {
		return false
	}
	if r != ':' {
		return t.fail(streamerr.Structuralf(offset, "expected ':', got %q", r))
	}
	t.state = sExpectValue
	return t.emit(Colon, "", offset)
}

func (t *Tokenizer) stepAfterValue(r rune, offset int64) bool {
	if isSpace(r) {
		return false
	}
	if len(t.ctx) == 0 {
		return t.fail(streamerr.Structuralf(offset, "unexpected %q after the top-level value is complete", r))
	}
	top := t.ctx[len(t.ctx)-1]
	switch r {
	case ',':
		if top == ctxArray {
			t.state = sExpectValue
		} else {
			t.state = sExpectKey
		}
		return t.emit(Comma, "", offset)
	case ']':
		if top != ctxArray {
			return t.fail(streamerr.Structuralf(offset, "unexpected ']', expected '}'"))
		}
		t.ctx = t.ctx[:len(t.ctx)-1]
		return t.emit(EndArray, "", offset)
	case '}':
		if top != ctxObject {
			return t.fail(streamerr.Structuralf(offset, "unexpected '}', expected ']'"))
		}
		t.ctx = t.ctx[:len(t.ctx)-1]
		return t.emit(EndObject, "", offset)
	default:
		return t.fail(streamerr.Structuralf(offset, "expected ',' or a closing bracket, got %q", r))
	}
}

func (t *Tokenizer) stepInString(r rune, offset int64) bool {
	switch r {
	case '"':
		if t.stringIsKey {
			t.state = sExpectColon
		} else {
			t.state = sAfterValue
		}
		return t.emit(StringEnd, "", offset)
	case '\\':
		t.state = sInStringEscape
		return false
	default:
		if r < 0x20 {
			return t.fail(streamerr.Lexicalf(offset, "invalid control character %U in string", r))
		}
		return t.emit(StringChunk, string(r), offset)
	}
}

func (t *Tokenizer) stepInStringEscape(r rune, offset int64) bool {
	switch r {
	case '"', '\\', '/':
		t.state = sInString
		return t.emit(StringChunk, string(r), offset)
	case 'b':
		t.state = sInString
		return t.emit(StringChunk, "\b", offset)
	case 'f':
		t.state = sInString
		return t.emit(StringChunk, "\f", offset)
	case 'n':
		t.state = sInString
		return t.emit(StringChunk, "\n", offset)
	case 'r':
		t.state = sInString
		return t.emit(StringChunk, "\r", offset)
	case 't':
		t.state = sInString
		return t.emit(StringChunk, "\t", offset)
	case 'u':
		t.state = sInUnicodeEscape
		t.hexPos = 0
		t.hexAcc = 0
		return false
	default:
		return t.fail(streamerr.Lexicalf(offset, "invalid escape %q", r))
	}
}

func (t *Tokenizer) stepInUnicodeEscape(r rune, offset int64) bool {
	v, ok := hexVal(r)
	if !ok {
		return t.fail(streamerr.Lexicalf(offset, "invalid hex digit %q in unicode escape", r))
	}
	t.hexAcc = t.hexAcc<<4 | uint16(v)
	t.hexPos++
	if t.hexPos < 4 {
		return false
	}
	code := rune(t.hexAcc)
	t.hexPos = 0
	t.hexAcc = 0

	if t.awaitingLowSurrogate {
		if code < 0xDC00 || code > 0xDFFF {
			return t.fail(streamerr.Lexicalf(offset, "expected a low surrogate, got %#04x", code))
		}
		combined := combineSurrogates(t.highSurrogate, code)
		t.awaitingLowSurrogate = false
		t.state = sInString
		return t.emit(StringChunk, string(combined), offset)
	}
	if code >= 0xD800 && code <= 0xDBFF {
		t.highSurrogate = code
		t.awaitingLowSurrogate = true
		t.state = sAwaitLowSurrogateEscape
		return false
	}
	if code >= 0xDC00 && code <= 0xDFFF {
		return t.fail(streamerr.Lexicalf(offset, "unpaired low surrogate %#04x", code))
	}
	t.state = sInString
	return t.emit(StringChunk, string(code), offset)
}

func (t *Tokenizer) stepAwaitLowSurrogateEscape(r rune, offset int64) bool {
	if r != '\\' {
		return t.fail(streamerr.Lexicalf(offset, "expected the low surrogate's escape, got %q", r))
	}
	t.state = sAwaitLowSurrogateU
	return false
}

func (t *Tokenizer) stepAwaitLowSurrogateU(r rune, offset int64) bool {
	if r != 'u' {
		return t.fail(streamerr.Lexicalf(offset, "expected '\\u' to introduce the low surrogate, got %q", r))
	}
	t.state = sInUnicodeEscape
	t.hexPos = 0
	t.hexAcc = 0
	return false
}

func (t *Tokenizer) startNumber(r rune, offset int64) bool {
	t.state = sInNumber
	switch {
	case r == '-':
		t.numSub = numSign
	case r == '0':
		t.numSub = numIntZero
	default:
		t.numSub = numIntNonZero
	}
	return t.emit(NumberChunk, string(r), offset)
}

func (t *Tokenizer) stepInNumber(r rune, offset int64) bool {
	switch t.numSub {
	case numSign:
		if !isDigit(r) {
			return t.fail(streamerr.Lexicalf(offset, "expected a digit after '-', got %q", r))
		}
		if r == '0' {
			t.numSub = numIntZero
		} else {
			t.numSub = numIntNonZero
		}
		return t.emit(NumberChunk, string(r), offset)
	case numIntZero:
		if isDigit(r) {
			return t.fail(streamerr.Lexicalf(offset, "leading zeros are not allowed in a number"))
		}
		return t.numAfterInt(r, offset)
	case numIntNonZero:
		if isDigit(r) {
			return t.emit(NumberChunk, string(r), offset)
		}
		return t.numAfterInt(r, offset)
	case numFracStart:
		if !isDigit(r) {
			return t.fail(streamerr.Lexicalf(offset, "expected a digit after '.', got %q", r))
		}
		t.numSub = numFrac
		return t.emit(NumberChunk, string(r), offset)
	case numFrac:
		if isDigit(r) {
			return t.emit(NumberChunk, string(r), offset)
		}
		return t.numAfterFrac(r, offset)
	case numExpStart:
		if r == '+' || r == '-' {
			t.numSub = numExpSign
			return t.emit(NumberChunk, string(r), offset)
		}
		if isDigit(r) {
			t.numSub = numExpDigits
			return t.emit(NumberChunk, string(r), offset)
		}
		return t.fail(streamerr.Lexicalf(offset, "expected a sign or a digit after the exponent marker, got %q", r))
	case numExpSign:
		if !isDigit(r) {
			return t.fail(streamerr.Lexicalf(offset, "expected a digit after the exponent sign, got %q", r))
		}
		t.numSub = numExpDigits
		return t.emit(NumberChunk, string(r), offset)
	case numExpDigits:
		if isDigit(r) {
			return t.emit(NumberChunk, string(r), offset)
		}
		return t.endNumber(r, offset)
	default:
		panic("token: invalid number sub-state")
	}
}

// numAfterInt handles the character following a complete integer part:
// '.' starts a fraction, 'e'/'E' starts an exponent, anything else ends
// the number.
func (t *Tokenizer) numAfterInt(r rune, offset int64) bool {
	switch r {
	case '.':
		t.numSub = numFracStart
		return t.emit(NumberChunk, ".", offset)
	case 'e', 'E':
		t.numSub = numExpStart
		return t.emit(NumberChunk, string(r), offset)
	default:
		return t.endNumber(r, offset)
	}
}

func (t *Tokenizer) numAfterFrac(r rune, offset int64) bool {
	if r == 'e' || r == 'E' {
		t.numSub = numExpStart
		return t.emit(NumberChunk, string(r), offset)
	}
	return t.endNumber(r, offset)
}

// endNumber is reached when a character that cannot extend the number is
// read. That character was not part of the number, so it is stashed as a
// pending rune and replayed into the post-number state on the next
// Advance call instead of being consumed twice.
func (t *Tokenizer) endNumber(r rune, offset int64) bool {
	t.hasPending = true
	t.pendingRune = r
	t.pendingOffs = offset
	t.state = sAfterValue
	return t.emit(NumberEnd, "", offset)
}

func (t *Tokenizer) startLiteral(rest string, typ Type, offset int64) bool {
	t.litExpected = rest
	t.litPos = 0
	t.litType = typ
	t.state = sInLiteral
	return false
}

func (t *Tokenizer) stepInLiteral(r rune, offset int64) bool {
	if byte(r) != t.litExpected[t.litPos] {
		return t.fail(streamerr.Lexicalf(offset, "invalid literal, expected %q", t.litExpected[t.litPos]))
	}
	t.litPos++
	if t.litPos < len(t.litExpected) {
		return false
	}
	t.state = sAfterValue
	return t.emit(t.litType, "", offset)
}

func (t *Tokenizer) handleEOF(offset int64) bool {
	if t.state == sInNumber {
		switch t.numSub {
		case numIntZero, numIntNonZero, numFrac, numExpDigits:
			t.state = sAfterValue
			return t.emit(NumberEnd, "", offset)
		default:
			return t.fail(streamerr.UnexpectedEOFf(offset, "input ended in the middle of a number"))
		}
	}
	if len(t.ctx) > 0 {
		return t.fail(streamerr.UnexpectedEOFf(offset, "input ended with %d unclosed container(s)", len(t.ctx)))
	}
	switch t.state {
	case sAfterValue:
		if !t.rootStarted {
			return t.fail(streamerr.UnexpectedEOFf(offset, "no value was found in the input"))
		}
		t.state = sDone
		return t.emit(EOF, "", offset)
	case sExpectValue:
		return t.fail(streamerr.UnexpectedEOFf(offset, "input ended before any value was found"))
	default:
		return t.fail(streamerr.UnexpectedEOFf(offset, "input ended unexpectedly"))
	}
}

func (t *Tokenizer) emit(typ Type, text string, offset int64) bool {
	t.event = Event{Type: typ, Text: text, Offset: offset}
	return true
}

func (t *Tokenizer) fail(err *streamerr.ParseError) bool {
	t.err = err
	return false
}

func combineSurrogates(high, low rune) rune {
	return ((high - 0xD800) << 10) + (low - 0xDC00) + 0x10000
}

func hexVal(r rune) (byte, bool) {
	switch {
	case r >= '0' && r <= '9':
		return byte(r - '0'), true
	case r >= 'a' && r <= 'f':
		return byte(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return byte(r-'A') + 10, true
	default:
		return 0, false
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
