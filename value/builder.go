package value

import (
	"strconv"
	"strings"

	"github.com/streamdecode/jsonstream/streamerr"
	"github.com/streamdecode/jsonstream/token"
)

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithMaxDepth caps the nesting depth of containers the builder will
// accept; zero (the default) means unlimited. Exceeding the limit is a
// Structural error.
func WithMaxDepth(n int) Option {
	return func(b *Builder) { b.maxDepth = n }
}

// WithRejectDuplicateKeys makes a repeated object key a Structural error
// instead of the default silent overwrite-in-place.
func WithRejectDuplicateKeys() Option {
	return func(b *Builder) { b.rejectDuplicateKeys = true }
}

type frameKind uint8

const (
	frameRoot frameKind = iota
	frameArray
	frameObject
)

type objState uint8

const (
	objAwaitingKey objState = iota
	objReadingKey
	objAwaitingColon
	objAwaitingValue
	objHoldingValue
)

// frame is one entry on the builder's explicit parse stack, corresponding
// to one unfinished container (or, for the bottom frame, the single
// top-level value).
type frame struct {
	kind  frameKind
	value *Value // the container this frame is filling; nil for frameRoot
	leaf  *Value // the slot currently receiving content

	objState   objState
	key        strings.Builder
	stashedKey string

	numberOpen    bool
	numberYielded bool
	numText       string
}

// Builder consumes a token.Event stream and maintains a single root
// Value, mutated in place. Advance reports whether handling the event
// produced an observable change worth yielding.
type Builder struct {
	root                *Value
	frames              []*frame
	maxDepth            int
	rejectDuplicateKeys bool
}

// NewBuilder returns a Builder ready to consume events for one JSON
// document.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{frames: []*frame{{kind: frameRoot}}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Root returns the current root value, or nil if no value has started
// yet. The returned pointer remains valid and is mutated by subsequent
// Advance calls; callers needing a stable copy must Clone it.
func (b *Builder) Root() *Value { return b.root }

// Depth reports the current container nesting depth (0 at the top level).
func (b *Builder) Depth() int { return len(b.frames) - 1 }

func (b *Builder) top() *frame { return b.frames[len(b.frames)-1] }

// Advance folds one token event into the builder's state. The bool
// result reports whether the root value observably changed and should
// be yielded to the caller.
func (b *Builder) Advance(ev token.Event) (bool, error) {
	switch ev.Type {
	case token.StartArray:
		return b.startContainer(Array, ev.Offset)
	case token.StartObject:
		return b.startContainer(Object, ev.Offset)
	case token.EndArray:
		return b.endContainer(Array, ev.Offset)
	case token.EndObject:
		return b.endContainer(Object, ev.Offset)
	case token.Colon:
		return b.colon(ev.Offset)
	case token.Comma:
		return b.comma(ev.Offset)
	case token.LiteralNull:
		return b.literal(newNull(), ev.Offset)
	case token.LiteralTrue:
		return b.literal(&Value{kind: Bool, b: true}, ev.Offset)
	case token.LiteralFalse:
		return b.literal(&Value{kind: Bool, b: false}, ev.Offset)
	case token.StringStart:
		return b.stringStart(ev.Offset)
	case token.StringChunk:
		return b.stringChunk(ev.Text, ev.Offset)
	case token.StringEnd:
		return b.stringEnd(ev.Offset)
	case token.NumberChunk:
		return b.numberChunk(ev.Text, ev.Offset)
	case token.NumberEnd:
		return b.numberEnd(ev.Offset)
	case token.EOF:
		return b.eof(ev.Offset)
	default:
		panic("value: unknown token event type")
	}
}

func (b *Builder) startContainer(kind Kind, offset int64) (bool, error) {
	if b.maxDepth > 0 && b.Depth() >= b.maxDepth {
		return false, streamerr.Structuralf(offset, "maximum nesting depth of %d exceeded", b.maxDepth)
	}
	f := b.top()
	var cont *Value
	switch f.kind {
	case frameRoot:
		if f.leaf != nil {
			return false, streamerr.Structuralf(offset, "a second top-level value was started")
		}
		cont = &Value{kind: kind}
		f.leaf = cont
		b.root = cont
	case frameArray:
		cont = &Value{kind: kind}
		f.value.arr = append(f.value.arr, cont)
		f.leaf = cont
	case frameObject:
		if f.objState != objAwaitingValue {
			return false, streamerr.Structuralf(offset, "unexpected start of a container in an object")
		}
		// Retype the slot placed at colon time in place, rather than
		// replacing it, so any held reference to it stays valid.
		f.leaf.kind = kind
		cont = f.leaf
		f.objState = objHoldingValue
	}
	if kind == Object {
		cont.obj = newObj()
	}
	f.numberOpen = false
	b.frames = append(b.frames, newContainerFrame(kind, cont))
	return true, nil
}

func newContainerFrame(kind Kind, cont *Value) *frame {
	switch kind {
	case Array:
		return &frame{kind: frameArray, value: cont}
	case Object:
		return &frame{kind: frameObject, value: cont, objState: objAwaitingKey}
	default:
		panic("value: newContainerFrame called with a non-container kind")
	}
}

func (b *Builder) endContainer(kind Kind, offset int64) (bool, error) {
	f := b.top()
	switch f.kind {
	case frameRoot:
		return false, streamerr.Structuralf(offset, "unexpected close with no container open")
	case frameArray:
		if kind != Array {
			return false, streamerr.Structuralf(offset, "mismatched close: expected ']'")
		}
	case frameObject:
		if kind != Object {
			return false, streamerr.Structuralf(offset, "mismatched close: expected '}'")
		}
		if f.objState != objAwaitingKey && f.objState != objHoldingValue {
			return false, streamerr.Structuralf(offset, "unexpected close of an object with a pending key or value")
		}
	}
	b.frames = b.frames[:len(b.frames)-1]
	b.top().numberOpen = false
	return true, nil
}

func (b *Builder) colon(offset int64) (bool, error) {
	f := b.top()
	if f.kind != frameObject || f.objState != objAwaitingColon {
		return false, streamerr.Structuralf(offset, "unexpected ':'")
	}
	if b.rejectDuplicateKeys {
		if _, exists := f.value.obj.Get(f.stashedKey); exists {
			return false, streamerr.Structuralf(offset, "duplicate object key %q", f.stashedKey)
		}
	}
	slot := newNull()
	f.value.obj.set(f.stashedKey, slot)
	f.leaf = slot
	f.objState = objAwaitingValue
	f.numberOpen = false
	return false, nil
}

func (b *Builder) comma(offset int64) (bool, error) {
	f := b.top()
	switch f.kind {
	case frameArray:
		// Nothing to commit; the next StartArray/StringStart/NumberChunk
		// etc. appends the next element.
	case frameObject:
		if f.objState != objHoldingValue {
			return false, streamerr.Structuralf(offset, "unexpected ',' in object")
		}
		f.objState = objAwaitingKey
	default:
		return false, streamerr.Structuralf(offset, "unexpected ','")
	}
	f.numberOpen = false
	return false, nil
}

func (b *Builder) literal(v *Value, offset int64) (bool, error) {
	f := b.top()
	switch f.kind {
	case frameRoot:
		if f.leaf != nil {
			return false, streamerr.Structuralf(offset, "a second top-level value was started")
		}
		f.leaf = v
		b.root = v
	case frameArray:
		f.value.arr = append(f.value.arr, v)
		f.leaf = v
	case frameObject:
		if f.objState != objAwaitingValue {
			return false, streamerr.Structuralf(offset, "unexpected value in object")
		}
		f.leaf.kind = v.kind
		f.leaf.b = v.b
		f.objState = objHoldingValue
	}
	f.numberOpen = false
	return true, nil
}

func (b *Builder) stringStart(offset int64) (bool, error) {
	f := b.top()
	switch f.kind {
	case frameRoot:
		if f.leaf != nil {
			return false, streamerr.Structuralf(offset, "a second top-level value was started")
		}
		v := &Value{kind: String}
		f.leaf = v
		b.root = v
	case frameArray:
		v := &Value{kind: String}
		f.value.arr = append(f.value.arr, v)
		f.leaf = v
	case frameObject:
		switch f.objState {
		case objAwaitingKey:
			f.objState = objReadingKey
			f.key.Reset()
		case objAwaitingValue:
			f.leaf.kind = String
			f.leaf.s = ""
			f.objState = objHoldingValue
		default:
			return false, streamerr.Structuralf(offset, "unexpected string")
		}
	}
	return false, nil
}

func (b *Builder) stringChunk(text string, offset int64) (bool, error) {
	f := b.top()
	if f.kind == frameObject && f.objState == objReadingKey {
		f.key.WriteString(text)
		return false, nil
	}
	if text == "" {
		return false, nil
	}
	if f.leaf == nil || f.leaf.kind != String {
		return false, streamerr.Structuralf(offset, "unexpected string content")
	}
	f.leaf.s += text
	return true, nil
}

func (b *Builder) stringEnd(offset int64) (bool, error) {
	f := b.top()
	if f.kind == frameObject && f.objState == objReadingKey {
		f.stashedKey = f.key.String()
		f.objState = objAwaitingColon
		return false, nil
	}
	return true, nil
}

// startOrContinueNumberLeaf makes f.leaf point at the Value receiving the
// in-progress number, allocating or retyping a slot the first time a
// NumberChunk arrives for a new number.
func (b *Builder) startOrContinueNumberLeaf(f *frame) {
	if f.numberOpen {
		return
	}
	switch f.kind {
	case frameRoot:
		v := &Value{kind: Number}
		f.leaf = v
		b.root = v
	case frameArray:
		v := &Value{kind: Number}
		f.value.arr = append(f.value.arr, v)
		f.leaf = v
	case frameObject:
		f.leaf.kind = Number
		f.objState = objHoldingValue
	}
	f.numberOpen = true
	f.numberYielded = false
	f.numText = ""
}

func (b *Builder) numberChunk(text string, offset int64) (bool, error) {
	f := b.top()
	if f.kind == frameObject && f.objState != objAwaitingValue && f.objState != objHoldingValue {
		return false, streamerr.Structuralf(offset, "unexpected number in object")
	}
	b.startOrContinueNumberLeaf(f)
	f.numText += text
	parsed, err := strconv.ParseFloat(f.numText, 64)
	if err != nil {
		// Not yet a complete number (e.g. "-", "1e", "1e+"); the
		// previously committed value stands unchanged.
		return false, nil
	}
	// The zero value of a fresh leaf is 0, so a committed value of
	// exactly 0 must still yield the first time it's reached; track
	// whether this number has ever committed, not just whether the
	// number changed from its zero-initialized state.
	if f.numberYielded && f.leaf.n == parsed {
		return false, nil
	}
	f.leaf.n = parsed
	f.numberYielded = true
	return true, nil
}

func (b *Builder) numberEnd(offset int64) (bool, error) {
	f := b.top()
	if !f.numberOpen {
		return false, streamerr.Structuralf(offset, "unexpected end of number")
	}
	f.numberOpen = false
	f.numText = ""
	return false, nil
}

func (b *Builder) eof(offset int64) (bool, error) {
	if len(b.frames) != 1 {
		return false, streamerr.UnexpectedEOFf(offset, "input ended with an unclosed container")
	}
	if b.root == nil {
		return false, streamerr.UnexpectedEOFf(offset, "no value was produced")
	}
	return false, nil
}
