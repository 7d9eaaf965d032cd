package objectid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Length is the hex-encoded size of an identifier.
const Length = 24

// New returns an opaque 24-hex-character identifier compatible with a
// document-store object id: a 4-byte big-endian unix timestamp followed
// by 8 random bytes.
func New() string {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(raw[4:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the timestamp repeated rather than panicking in a request path.
		binary.BigEndian.PutUint64(raw[4:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(raw[:])
}

// IsValid reports whether s is a well-formed identifier.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
