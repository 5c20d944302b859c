package jsonstream

import (
	"github.com/streamdecode/jsonstream/internal/chunksource"
	"github.com/streamdecode/jsonstream/token"
	"github.com/streamdecode/jsonstream/value"
)

// Value and Kind re-export the value package's data model so callers of
// Decoder need not import it directly.
type Value = value.Value
type Kind = value.Kind

const (
	Null   = value.Null
	Bool   = value.Bool
	Number = value.Number
	String = value.String
	Array  = value.Array
	Object = value.Object
)

type config struct {
	builderOpts []value.Option
}

// Option configures a Decoder at construction time.
type Option func(*config)

// WithMaxDepth caps the nesting depth Decoder will accept before
// returning a Structural error. Zero, the default, means unlimited.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.builderOpts = append(c.builderOpts, value.WithMaxDepth(n)) }
}

// WithRejectDuplicateKeys makes a repeated object key fatal instead of
// the default silent overwrite-in-place.
func WithRejectDuplicateKeys() Option {
	return func(c *config) { c.builderOpts = append(c.builderOpts, value.WithRejectDuplicateKeys()) }
}

// Decoder is a pull-driven incremental JSON parser. Feed chunks as they
// arrive, Close once the final chunk has been fed, and call Advance in a
// loop the way you would a bufio.Scanner: each true return means Value
// reports a new, more-complete snapshot; a false return with a nil Err
// means the decoder is waiting for more input; a false return with a
// non-nil Err means the stream is fatally broken.
//
// Decoder drives the chunk source, tokenizer and value builder
// synchronously on the caller's goroutine — there is no internal
// goroutine or channel in the hot path.
type Decoder struct {
	source  *chunksource.Source
	tok     *token.Tokenizer
	builder *value.Builder
	err     error
}

// NewDecoder returns a Decoder ready to receive chunks for one JSON
// document.
func NewDecoder(opts ...Option) *Decoder {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	source := chunksource.New()
	return &Decoder{
		source:  source,
		tok:     token.New(source),
		builder: value.NewBuilder(cfg.builderOpts...),
	}
}

// Feed appends a chunk of input. It may be called any number of times,
// interleaved with Advance, with chunks of any size down to a single
// byte. It must not be called after Close.
func (d *Decoder) Feed(chunk []byte) {
	d.source.Feed(chunk)
}

// Close signals that every chunk has now been fed; Advance will report
// an UnexpectedEOF error if the document was left incomplete.
func (d *Decoder) Close() {
	d.source.Close()
}

// Advance drives the pipeline forward. See the Decoder doc comment for
// the three possible outcomes.
func (d *Decoder) Advance() bool {
	if d.err != nil {
		return false
	}
	for d.tok.Advance() {
		yielded, err := d.builder.Advance(d.tok.Event())
		if err != nil {
			d.err = err
			return false
		}
		if yielded {
			return true
		}
	}
	if err := d.tok.Err(); err != nil {
		d.err = err
		return false
	}
	return false
}

// Value returns the current root value snapshot, or nil if no value has
// started yet. The returned pointer is mutated in place by later
// Advance calls; retain it past the next Advance only via Clone.
func (d *Decoder) Value() *Value {
	return d.builder.Root()
}

// Err returns the fatal error that stopped the stream, or nil if none
// has occurred (including while merely waiting for more input).
func (d *Decoder) Err() error {
	return d.err
}

// Depth reports the decoder's current container nesting depth.
func (d *Decoder) Depth() int {
	return d.builder.Depth()
}
