package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"posdesk/internal/domain/draft"
)

// DefaultCompressThreshold is the snapshot size above which it is zstd-compressed.
const DefaultCompressThreshold = 8 * 1024

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Snapshot is everything needed to resume the session after a restart.
type Snapshot struct {
	Drafts   []draft.Draft `json:"drafts"`
	ActiveID string        `json:"activeId"`
}

// rawSnapshot is a decoded snapshot whose drafts are not yet trusted.
type rawSnapshot struct {
	Drafts   []json.RawMessage
	ActiveID string
}

// Codec turns snapshots into bytes for a Persister and back.
type Codec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewCodec creates a codec compressing snapshots larger than threshold bytes.
// A threshold <= 0 uses DefaultCompressThreshold.
func NewCodec(threshold int) (*Codec, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode serializes a snapshot.
func (c *Codec) Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(data) > c.threshold {
		return c.encoder.EncodeAll(data, nil), nil
	}
	return data, nil
}

// Close releases the zstd workers. The codec must not be used afterwards.
func (c *Codec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

// decode accepts compressed or plain JSON. A bare JSON array is read as a
// draft list with no active id.
func (c *Codec) decode(data []byte) (rawSnapshot, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return rawSnapshot{}, fmt.Errorf("decompress snapshot: %w", err)
		}
		data = plain
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var drafts []json.RawMessage
		if err := json.Unmarshal(data, &drafts); err != nil {
			return rawSnapshot{}, fmt.Errorf("unmarshal draft list: %w", err)
		}
		return rawSnapshot{Drafts: drafts}, nil
	}
	var out struct {
		Drafts   []json.RawMessage `json:"drafts"`
		ActiveID string            `json:"activeId"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return rawSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return rawSnapshot{Drafts: out.Drafts, ActiveID: out.ActiveID}, nil
}
