package main

import (
	"bufio"
	"strconv"

	"github.com/streamdecode/jsonstream"
)

// colorizer assigns an ANSI color to each scalar kind and to object keys,
// driving the CLI's writer directly instead of going through a Printer
// abstraction.
type colorizer struct {
	scalarColorCodes [4][]byte
	keyColorCode     []byte
	resetCode        []byte
}

func (c *colorizer) scalarColorCode(k jsonstream.Kind) []byte {
	switch k {
	case jsonstream.Null:
		return c.scalarColorCodes[0]
	case jsonstream.Bool:
		return c.scalarColorCodes[1]
	case jsonstream.Number:
		return c.scalarColorCodes[2]
	default:
		return c.scalarColorCodes[3]
	}
}

// Some color ANSI codes.
var (
	reset = []byte("\033[0m")

	yellow = []byte("\033[33m")
	white  = []byte("\033[37m")
	green  = []byte("\033[32m")

	dimWhite   = []byte("\033[37;2m")
	brightBlue = []byte("\033[34;1m")
)

var defaultColorizer = colorizer{
	scalarColorCodes: [4][]byte{dimWhite, yellow, white, green},
	keyColorCode:     brightBlue,
	resetCode:        reset,
}

// writeColored writes v as compact JSON to out, coloring scalars and
// object keys when c is non-nil.
func writeColored(out *bufio.Writer, v *jsonstream.Value, c *colorizer) {
	if v == nil {
		out.WriteString("null")
		return
	}
	switch v.Kind() {
	case jsonstream.Array:
		out.WriteByte('[')
		for i, e := range v.Array() {
			if i > 0 {
				out.WriteByte(',')
			}
			writeColored(out, e, c)
		}
		out.WriteByte(']')
	case jsonstream.Object:
		out.WriteByte('{')
		obj := v.Object()
		for i := 0; i < obj.Len(); i++ {
			if i > 0 {
				out.WriteByte(',')
			}
			key, val := obj.At(i)
			writeColoredKey(out, key, c)
			out.WriteByte(':')
			writeColored(out, val, c)
		}
		out.WriteByte('}')
	default:
		writeColoredScalar(out, v, c)
	}
}

func writeColoredKey(out *bufio.Writer, key string, c *colorizer) {
	if c != nil {
		out.Write(c.keyColorCode)
	}
	out.WriteString(strconv.Quote(key))
	if c != nil {
		out.Write(c.resetCode)
	}
}

func writeColoredScalar(out *bufio.Writer, v *jsonstream.Value, c *colorizer) {
	if c != nil {
		out.Write(c.scalarColorCode(v.Kind()))
	}
	switch v.Kind() {
	case jsonstream.Null:
		out.WriteString("null")
	case jsonstream.Bool:
		if v.Bool() {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case jsonstream.Number:
		out.WriteString(strconv.FormatFloat(v.Number(), 'g', -1, 64))
	case jsonstream.String:
		out.WriteString(strconv.Quote(v.Str()))
	}
	if c != nil {
		out.Write(c.resetCode)
	}
}
