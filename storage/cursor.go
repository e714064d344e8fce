package storage

import "fmt"

// Cursor tracks a position within a leaf's cells. It does not cross
// back over a page that has since split; callers that need a stable
// view should re-find after mutating the table.
type Cursor struct {
	table      *Table
	pageNum    uint32
	cellNum    int
	endOfTable bool
}

// EndOfTable reports whether the cursor has advanced past the last row.
func (c *Cursor) EndOfTable() bool { return c.endOfTable }

// Value returns the serialized row bytes at the cursor's position.
func (c *Cursor) Value() ([]byte, error) {
	leaf, err := c.table.loadLeaf(c.pageNum)
	if err != nil {
		return nil, fmt.Errorf("Cursor.Value: %w", err)
	}
	if c.cellNum >= leaf.CellCount() {
		return nil, fmt.Errorf("Cursor.Value: cell %d out of range (%d cells): %w", c.cellNum, leaf.CellCount(), ErrCorruptPage)
	}
	return leaf.Value(c.cellNum), nil
}

// Insert forwards to Table.Insert. The cursor's own position plays no
// part: Table.Insert always re-finds the right leaf for row.ID, since
// a prior Insert through any cursor may have split pages and moved
// cells around since this cursor was positioned.
func (c *Cursor) Insert(row Row) error {
	return c.table.Insert(row)
}

// Advance moves to the next cell, following next_leaf_num across a
// page boundary when the current leaf is exhausted. The original
// cursor only walked within one page; that was a dead end for any
// table wider than one leaf, so this crosses leaves instead.
func (c *Cursor) Advance() error {
	leaf, err := c.table.loadLeaf(c.pageNum)
	if err != nil {
		return fmt.Errorf("Cursor.Advance: %w", err)
	}
	c.cellNum++
	if c.cellNum >= leaf.CellCount() {
		next := leaf.NextLeaf()
		if next == 0 {
			c.endOfTable = true
			return nil
		}
		c.pageNum = uint32(next)
		c.cellNum = 0
	}
	return nil
}
