package storage

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Row is the table's only schema: an id plus two fixed-width strings.
type Row struct {
	ID       uint64
	Username string
	Email    string
}

// SerializeRow writes row into dst, which must be exactly RowSize
// bytes. The id is little-endian; Username and Email are copied and
// zero-padded to their fixed widths.
func SerializeRow(row Row, dst []byte) error {
	if len(dst) != RowSize {
		return fmt.Errorf("SerializeRow: dst length %d, want %d", len(dst), RowSize)
	}
	if len(row.Username) > UsernameSize {
		return fmt.Errorf("SerializeRow: username %q: %w", row.Username, ErrRowTooLarge)
	}
	if len(row.Email) > EmailSize {
		return fmt.Errorf("SerializeRow: email %q: %w", row.Email, ErrRowTooLarge)
	}

	for i := range dst {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint64(dst[0:IDSize], row.ID)
	copy(dst[IDSize:IDSize+UsernameSize], row.Username)
	copy(dst[IDSize+UsernameSize:RowSize], row.Email)
	return nil
}

// DeserializeRow parses a RowSize-byte slice produced by SerializeRow.
// Each string field is read up to its first NUL byte.
func DeserializeRow(src []byte) (Row, error) {
	if len(src) != RowSize {
		return Row{}, fmt.Errorf("DeserializeRow: src length %d, want %d: %w", len(src), RowSize, ErrDecodeError)
	}

	id := binary.LittleEndian.Uint64(src[0:IDSize])
	username, err := decodeFixedString(src[IDSize : IDSize+UsernameSize])
	if err != nil {
		return Row{}, fmt.Errorf("DeserializeRow: username: %w", err)
	}
	email, err := decodeFixedString(src[IDSize+UsernameSize : RowSize])
	if err != nil {
		return Row{}, fmt.Errorf("DeserializeRow: email: %w", err)
	}

	return Row{ID: id, Username: username, Email: email}, nil
}

// decodeFixedString scans window for the first NUL byte and validates
// that the prefix before it is well-formed UTF-8.
func decodeFixedString(window []byte) (string, error) {
	n := 0
	for n < len(window) && window[n] != 0 {
		n++
	}
	prefix := window[:n]
	if !utf8.Valid(prefix) {
		return "", ErrDecodeError
	}
	return string(prefix), nil
}
