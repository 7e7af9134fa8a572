package observation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// rawCodec compresses provider payloads for the raw column.
// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
type rawCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newRawCodec() (*rawCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &rawCodec{enc: enc, dec: dec}, nil
}

// encode returns nil for an empty payload so the column stays NULL.
func (c *rawCodec) encode(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// decode accepts both compressed and plain JSON payloads.
func (c *rawCodec) decode(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if !bytes.HasPrefix(b, zstdMagic) {
		return json.RawMessage(b), nil
	}
	out, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing raw payload: %w", err)
	}
	return json.RawMessage(out), nil
}
