package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Row is the fixed-shape record stored in leaf cells, keyed by ID.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Serialize writes the row into a RowSize-byte slot. Strings shorter than
// their column are NUL-padded; the id is little-endian.
func (r Row) Serialize(dst []byte) {
	_ = dst[RowSize-1]

	binary.LittleEndian.PutUint32(dst[0:IDSize], r.ID)

	username := dst[UsernameOffset : UsernameOffset+UsernameSize+1]
	for i := range username {
		username[i] = 0
	}
	copy(username, r.Username)

	email := dst[EmailOffset : EmailOffset+EmailSize+1]
	for i := range email {
		email[i] = 0
	}
	copy(email, r.Email)
}

// DeserializeRow reads a row back from a RowSize-byte slot.
func DeserializeRow(src []byte) Row {
	_ = src[RowSize-1]

	return Row{
		ID:       binary.LittleEndian.Uint32(src[0:IDSize]),
		Username: cString(src[UsernameOffset : UsernameOffset+UsernameSize+1]),
		Email:    cString(src[EmailOffset : EmailOffset+EmailSize+1]),
	}
}

// String renders the row the way select prints it.
func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
