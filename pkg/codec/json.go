package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/gowebpki/jcs"
)

const jsonContentType = "application/json"

type jsonCodec struct{}

// JSON returns the structured-text codec.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Choice() domain.SerializationChoice { return domain.StructuredText }

func (jsonCodec) ContentType() string { return jsonContentType }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return Canonical(raw)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// maxExactInteger is the largest integer a float64 holds without rounding.
const maxExactInteger = 1 << 53

// Canonical rewrites a JSON document in RFC 8785 form (sorted keys, no
// insignificant whitespace, normalized numbers).
//
// Canonical numbers are IEEE doubles, so documents carrying integers beyond
// 2^53 are only compacted. encoding/json output is already deterministic, so
// equal values still produce equal bytes. Use U64 to keep such values exact
// and canonical.
func Canonical(raw []byte) ([]byte, error) {
	exact, err := exactNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if !exact {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		return buf.Bytes(), nil
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("json canonicalization: %w", err)
	}
	return out, nil
}

// exactNumbers reports whether every number in raw survives a float64 round trip.
func exactNumbers(raw []byte) (bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		n, ok := tok.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			if i > maxExactInteger || i < -maxExactInteger {
				return false, nil
			}
			continue
		}
		f, err := n.Float64()
		if err != nil || math.Abs(f) > maxExactInteger && f == math.Trunc(f) {
			return false, nil
		}
	}
}
