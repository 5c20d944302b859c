// Package jsonstream implements an incremental JSON decoder: feed it
// arbitrarily-sized byte chunks as they arrive and it yields the JSON
// value being built, progressively more complete, after every chunk that
// changes it observably.
//
// The package is organized into focused sub-packages, leaves first:
//
// - internal/chunksource: reassembles chunk-boundary-split UTF-8
// - token: the tokenizer, turning runes into token events
// - value: the JSON value tree and the builder that mutates it in place
//
// Decoder ties the three together:
//
//	d := jsonstream.NewDecoder()
//	d.Feed([]byte(`{"a":`))
//	d.Feed([]byte(`1}`))
//	d.Close()
//	for d.Advance() {
//		fmt.Println(d.Value().JSON())
//	}
//	if err := d.Err(); err != nil {
//		// handle the fatal parse error
//	}
//
// Decoder reuses the same *value.Value across every yield: containers
// grow in place rather than being rebuilt, and scalar leaves are
// overwritten in place as more of their text arrives. A caller that
// needs a value to survive past the next Advance call must Clone it.
//
// There is no facility for marshaling Go structs, unlike the standard
// library encoding/json package — this is a streaming tree builder, not
// a struct codec.
//
// A demonstration CLI lives in cmd/jsonstream. You can install it with:
//
//	go install github.com/streamdecode/jsonstream/cmd/jsonstream
package jsonstream
