package redis

import (
	"encoding/json"

	"github.com/poisonlab/poisonlab/instanceid"
	"github.com/poisonlab/poisonlab/model"
)

// CacheMessage struct holding key and commit for cache synchronization
type CacheMessage struct {
	Key    string
	Sender string
	Commit *model.Commit
}

func newCacheMessage(key string, commit *model.Commit) *CacheMessage {
	return &CacheMessage{Key: key, Sender: instanceid.String(), Commit: commit}
}

// FromSelf reports whether the message was published by this instance
func (u *CacheMessage) FromSelf() bool {
	return instanceid.Equal(u.Sender)
}

// MarshalBinary encodes the struct to json
func (u *CacheMessage) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

// UnmarshalBinary decodes the struct into a CacheMessage
func (u *CacheMessage) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}
