package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	// recordVersion is the on-disk schema version.
	recordVersion = 1

	// compressionThreshold is the payload size above which records are zstd
	// compressed. Trending listings stay readable; READMEs and trees shrink.
	compressionThreshold = 2048

	// maxDecodedSize caps decompression output.
	maxDecodedSize = 32 * 1024 * 1024

	encodingIdentity = "identity"
	encodingZstd     = "zstd"
)

// Record decoding errors.
var (
	ErrCorrupted         = errors.New("cache record corrupted")
	ErrUnsupportedSchema = errors.New("unsupported cache record version")
)

// Record is one cached payload together with the time it was stored.
type Record struct {
	// Key is the canonical key text.
	Key string
	// Category selects the TTL used to judge freshness.
	Category Category
	// StoredAt is when the payload was written.
	StoredAt time.Time
	// Payload is the cached value as JSON.
	Payload json.RawMessage
}

// Decode unmarshals the record payload into v.
func (r *Record) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", r.Category, err)
	}
	return nil
}

// envelope is the serialized form of a Record.
type envelope struct {
	Version  int             `json:"version"`
	Key      string          `json:"key"`
	Category Category        `json:"category"`
	StoredAt time.Time       `json:"stored_at"`
	Encoding string          `json:"encoding"`
	Digest   string          `json:"digest"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Data     []byte          `json:"data,omitempty"`
}

// codec converts records to and from envelopes. The zstd encoder and decoder
// are safe for concurrent EncodeAll/DecodeAll calls.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var (
	sharedCodec     *codec
	sharedCodecErr  error
	sharedCodecOnce sync.Once
)

func getCodec() (*codec, error) {
	sharedCodecOnce.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			sharedCodecErr = fmt.Errorf("creating zstd encoder: %w", err)
			return
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
		if err != nil {
			enc.Close()
			sharedCodecErr = fmt.Errorf("creating zstd decoder: %w", err)
			return
		}
		sharedCodec = &codec{enc: enc, dec: dec}
	})
	return sharedCodec, sharedCodecErr
}

func digestOf(b []byte) string {
	sum := blake3.Sum256(b)
	return "blake3:" + hex.EncodeToString(sum[:])
}

// marshal produces the file contents for r.
func (c *codec) marshal(r *Record) ([]byte, error) {
	env := envelope{
		Version:  recordVersion,
		Key:      r.Key,
		Category: r.Category,
		StoredAt: r.StoredAt.UTC(),
		Encoding: encodingIdentity,
		Digest:   digestOf(r.Payload),
		Payload:  r.Payload,
	}

	if len(r.Payload) >= compressionThreshold {
		compressed := c.enc.EncodeAll(r.Payload, nil)
		if len(compressed) < len(r.Payload) {
			env.Encoding = encodingZstd
			env.Payload = nil
			env.Data = compressed
		}
	}

	return json.Marshal(&env)
}

// unmarshal parses file contents, verifying the schema version and digest.
func (c *codec) unmarshal(data []byte) (*Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if env.Version != recordVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, env.Version)
	}
	if env.Key == "" || env.StoredAt.IsZero() {
		return nil, fmt.Errorf("%w: missing key or timestamp", ErrCorrupted)
	}

	payload := []byte(env.Payload)
	switch env.Encoding {
	case encodingIdentity:
	case encodingZstd:
		decoded, err := c.dec.DecodeAll(env.Data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		payload = decoded
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrCorrupted, env.Encoding)
	}

	if len(payload) == 0 || digestOf(payload) != env.Digest {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupted)
	}

	return &Record{
		Key:      env.Key,
		Category: env.Category,
		StoredAt: env.StoredAt,
		Payload:  payload,
	}, nil
}
