package protocol

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned for any byte slice that does not decode
// into exactly one well-formed protocol message. Receivers drop such messages
// without tearing down the link.
var ErrMalformedMessage = errors.New("malformed message")

// Packet is the envelope every link message travels in. Exactly one field is
// set.
type Packet struct {
	Hello *Hello
	LSU   *LinkStateUpdate
}

// EncodeHello serializes a Hello.
func EncodeHello(h *Hello) ([]byte, error) {
	return encode(&Packet{Hello: h})
}

// EncodeLSU serializes a LinkStateUpdate.
func EncodeLSU(u *LinkStateUpdate) ([]byte, error) {
	return encode(&Packet{LSU: u})
}

func encode(p *Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a link message. Anything that is not exactly one message is
// malformed.
func Decode(b []byte) (*Packet, error) {
	p := &Packet{}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if (p.Hello == nil) == (p.LSU == nil) {
		return nil, fmt.Errorf("%w: packet must carry exactly one message", ErrMalformedMessage)
	}
	return p, nil
}
