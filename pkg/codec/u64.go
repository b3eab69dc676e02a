package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// U64 is a uint64 that travels as a decimal string in JSON, keeping values
// beyond 2^53 exact for clients that parse numbers as doubles.
// As a struct field it is a plain u64 in the binary codec.
type U64 uint64

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if errNum := json.Unmarshal(data, &n); errNum != nil {
			return fmt.Errorf("u64: expected a decimal string: %w", err)
		}
		*u = U64(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("u64: %w", err)
	}
	*u = U64(n)
	return nil
}

func (u U64) String() string {
	return strconv.FormatUint(uint64(u), 10)
}
