package storage

import "errors"

var (
	// ErrDuplicateKey is returned by Table.Insert when a row with the
	// same id already exists. Recoverable: the table is left unchanged.
	ErrDuplicateKey = errors.New("storage: duplicate key")

	// ErrRowTooLarge is returned by SerializeRow when a field exceeds
	// its fixed width.
	ErrRowTooLarge = errors.New("storage: row field too large")

	// ErrDecodeError is returned by DeserializeRow when a fixed-width
	// string window contains invalid UTF-8, or the source slice is the
	// wrong length. Indicates on-disk corruption.
	ErrDecodeError = errors.New("storage: row decode error")

	// ErrCorruptPage is returned when a page's node_type byte is not a
	// recognized value, its cell count overflows the page, a page is not
	// the node variant the caller expects, a cursor points past its
	// leaf's cells, or a split leaf is missing from its parent.
	ErrCorruptPage = errors.New("storage: corrupt page")

	// ErrCapacityExceeded is returned when an insert would need more
	// pages than TableMaxPages allows, or would overflow an internal
	// node past InternalNodeMaxCells. Internal-node splitting is not
	// implemented (see DESIGN.md); this is the clean failure mode for
	// that limitation rather than a panic.
	ErrCapacityExceeded = errors.New("storage: capacity exceeded")
)
