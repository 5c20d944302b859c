// Package streamerr defines the error taxonomy used by the streaming JSON
// parser. Every error the parser returns is fatal to the stream: once one
// occurs, no further progress is made and no further values are yielded.
package streamerr

import "fmt"

// Category classifies why decoding failed.
type Category uint8

const (
	// Lexical means the tokenizer rejected a character: a bad escape, a
	// malformed number, an unknown literal, or an unexpected character.
	Lexical Category = iota

	// Structural means the token sequence did not form a well-nested
	// document: an extra close, a missing comma, a value after the root
	// is already complete, a key without a colon, and so on.
	Structural

	// Encoding means the input bytes were not valid in the declared
	// encoding.
	Encoding

	// UnexpectedEOF means the input ended with an unfinished token or an
	// unclosed container.
	UnexpectedEOF
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical error"
	case Structural:
		return "structural error"
	case Encoding:
		return "encoding error"
	case UnexpectedEOF:
		return "unexpected end of input"
	default:
		return "parse error"
	}
}

// ParseError is a fatal error encountered while decoding a JSON stream.
type ParseError struct {
	Category Category

	// Offset is the byte offset at which the violation was detected, or
	// -1 if no cheap offset was available at the point of failure.
	Offset int64

	Msg string
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Category, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Msg)
}

// New builds a ParseError with a formatted message.
func New(cat Category, offset int64, format string, args ...any) *ParseError {
	return &ParseError{Category: cat, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Lexicalf builds a Lexical ParseError.
func Lexicalf(offset int64, format string, args ...any) *ParseError {
	return New(Lexical, offset, format, args...)
}

// Structuralf builds a Structural ParseError.
func Structuralf(offset int64, format string, args ...any) *ParseError {
	return New(Structural, offset, format, args...)
}

// Encodingf builds an Encoding ParseError.
func Encodingf(offset int64, format string, args ...any) *ParseError {
	return New(Encoding, offset, format, args...)
}

// UnexpectedEOFf builds an UnexpectedEOF ParseError.
func UnexpectedEOFf(offset int64, format string, args ...any) *ParseError {
	return New(UnexpectedEOF, offset, format, args...)
}
