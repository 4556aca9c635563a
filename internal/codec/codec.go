// Package codec holds the CBOR configuration shared by the worker protocol.
//
// The parent process and its workers exchange a stream of CBOR messages over
// the worker's stdin and stdout. Both ends must agree on map and integer
// decoding, so every encoder and decoder is created here.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// OrderedMapTag is the CBOR tag number carrying an OrderedMap.
const OrderedMapTag = 40301

// OrderedMap is a string-keyed map whose key order survives encoding.
// Plain Go maps are encoded with sorted keys, so values whose order
// matters travel as an OrderedMap instead. Decoding into an any-typed
// target yields an OrderedMap value.
type OrderedMap struct {
	_      struct{} `cbor:",toarray"`
	Keys   []string
	Values []any
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(OrderedMap{}),
		OrderedMapTag,
	)
	if err != nil {
		panic("codec: registering CBOR tags failed: " + err.Error())
	}

	// Core Deterministic Encoding: sorted map keys and shortest integer
	// forms, so identical values always encode to identical bytes.
	encMode, err = cbor.CoreDetEncOptions().EncModeWithTags(tags)
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Snippet values only use string keys. Without this the decoder
		// produces map[interface{}]interface{} for any-typed targets.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Integers decode as int64 so a scalar survives the round trip
		// with the same Go type the interpreter exported.
		IntDec: cbor.IntDecConvertSigned,
	}.DecModeWithTags(tags)
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value used to delay decoding of a
// message body until its type is known.
type RawMessage = cbor.RawMessage

// Encoder is a CBOR stream encoder.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder.
type Decoder = cbor.Decoder

// NewEncoder returns a stream encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
