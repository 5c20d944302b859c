// Command jsonstream is a small demonstration CLI for the jsonstream
// decoder: it reads a JSON document, in chunks of a configurable size,
// and prints every progressively-complete snapshot as it is yielded.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/streamdecode/jsonstream"
)

func main() {
	// SIGPIPE is handled explicitly below (see the EPIPE check at the
	// bottom of main), not by the default terminate-on-signal behaviour.
	signal.Ignore(syscall.SIGPIPE)

	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
			os.Exit(1)
		}
	}()

	var filename string
	var chunkSize int
	var maxDepth int
	var rejectDuplicateKeys bool
	var synthetic bool
	var colors *colorizer

	if isatty.IsTerminal(os.Stdout.Fd()) {
		colors = &defaultColorizer
	}

	flag.StringVar(&filename, "file", "", "JSON input filename (stdin if omitted)")
	flag.IntVar(&chunkSize, "chunksize", 4096, "bytes read per Feed call")
	flag.IntVar(&maxDepth, "maxdepth", 0, "maximum nesting depth (0 means unlimited)")
	flag.BoolVar(&rejectDuplicateKeys, "rejectdupkeys", false, "treat a repeated object key as a fatal error")
	flag.BoolVar(&synthetic, "synthetic", false, "drive the decoder from a synthetic channel of chunks instead of reading directly")
	flag.BoolFunc("colors", "force using colors", func(string) error {
		colors = &defaultColorizer
		return nil
	})
	flag.BoolFunc("nocolors", "disable colors", func(string) error {
		colors = nil
		return nil
	})
	flag.Parse()

	var stdout io.Writer = os.Stdout
	if colors != nil {
		stdout = colorable.NewColorableStdout()
	}
	out := bufio.NewWriter(stdout)
	defer out.Flush()

	var input io.Reader
	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			fatalError("error opening %q: %s", filename, err)
		}
		defer f.Close()
		input = f
	} else {
		input = os.Stdin
	}

	var opts []jsonstream.Option
	if maxDepth > 0 {
		opts = append(opts, jsonstream.WithMaxDepth(maxDepth))
	}
	if rejectDuplicateKeys {
		opts = append(opts, jsonstream.WithRejectDuplicateKeys())
	}
	decoder := jsonstream.NewDecoder(opts...)

	var feedErr error
	if synthetic {
		feedErr = driveFromChannel(decoder, input, chunkSize, out, colors)
	} else {
		feedErr = driveFromReader(decoder, input, chunkSize, out, colors)
	}
	if feedErr != nil {
		if errors.Is(feedErr, syscall.EPIPE) {
			return
		}
		fatalError("error: %s", feedErr)
	}

	if err := decoder.Err(); err != nil {
		fatalError("error: %s", err)
	}
}

// driveFromReader reads fixed-size chunks directly from r, feeding and
// draining the decoder after each read.
func driveFromReader(d *jsonstream.Decoder, r io.Reader, chunkSize int, out *bufio.Writer, colors *colorizer) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Feed(buf[:n])
			if drainErr := drain(d, out, colors); drainErr != nil {
				return drainErr
			}
		}
		if err == io.EOF {
			d.Close()
			return drain(d, out, colors)
		}
		if err != nil {
			return err
		}
	}
}

// driveFromChannel demonstrates feeding the decoder from a synthetic
// chunk-by-chunk source instead of a direct io.Reader, exercising
// exactly the same chunk-independence property as driveFromReader. The
// channel and its producer goroutine live entirely in the CLI, outside
// the decoder's own synchronous core.
func driveFromChannel(d *jsonstream.Decoder, r io.Reader, chunkSize int, out *bufio.Writer, colors *colorizer) error {
	chunks := make(chan []byte)
	readErrs := make(chan error, 1)
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				c := make([]byte, n)
				copy(c, buf[:n])
				chunks <- c
			}
			if err != nil {
				if err != io.EOF {
					readErrs <- err
				}
				close(chunks)
				return
			}
		}
	}()
	for chunk := range chunks {
		d.Feed(chunk)
		if err := drain(d, out, colors); err != nil {
			return err
		}
	}
	select {
	case err := <-readErrs:
		return err
	default:
	}
	d.Close()
	return drain(d, out, colors)
}

func drain(d *jsonstream.Decoder, out *bufio.Writer, colors *colorizer) error {
	for d.Advance() {
		writeColored(out, d.Value(), colors)
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func fatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
