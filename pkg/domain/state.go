package domain

import "time"

// StateRecord is the persisted contract state for one account.
// Data holds the state value encoded with Codec.
type StateRecord struct {
	Account   string              `json:"account"`
	Contract  string              `json:"contract,omitempty"`
	Codec     SerializationChoice `json:"codec"`
	Data      []byte              `json:"data"`
	Version   uint64              `json:"version"`
	UpdatedAt time.Time           `json:"updated_at"`

	// Encrypted is set by store middleware when Data is sealed at rest.
	Encrypted bool `json:"encrypted,omitempty"`
}

// NewStateRecord creates the first version of an account's state.
func NewStateRecord(account, contract string, codec SerializationChoice, data []byte) *StateRecord {
	return &StateRecord{
		Account:   account,
		Contract:  contract,
		Codec:     codec,
		Data:      append([]byte(nil), data...),
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy so stores never share buffers with callers.
func (r *StateRecord) Clone() *StateRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Data = append([]byte(nil), r.Data...)
	return &c
}

// Next derives the record that replaces r after a committed call.
func (r *StateRecord) Next(data []byte) *StateRecord {
	c := r.Clone()
	c.Data = append([]byte(nil), data...)
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	return c
}
