package redis

import (
	"strings"
)

// Key represents a redis key
type Key struct {
	completeKey string
	key         string
}

// Key constructor
func newKey(parts ...string) *Key {
	return &Key{
		completeKey: strings.Join(parts, ":"),
		key:         parts[len(parts)-1],
	}
}

// String representation of the complete key
func (k *Key) String() string {
	return k.completeKey
}

// Key representation the last of the key
func (k *Key) Key() string {
	return k.key
}

// NewSubkey creates a new key with the current key as parent
func (k *Key) NewSubkey(parts ...string) *Key {
	ip := []string{k.completeKey}

	ip = append(ip, parts...)

	return newKey(ip...)
}
