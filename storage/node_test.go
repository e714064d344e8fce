package storage

import "testing"

func TestLeafNodeSerializeRoundTrip(t *testing.T) {
	leaf := NewLeafNode(3, true)
	leaf.SetParentPageNum(3)
	leaf.nextLeaf = 9

	rows := []Row{
		{ID: 1, Username: "a", Email: "a@x.com"},
		{ID: 2, Username: "b", Email: "b@x.com"},
	}
	for i, row := range rows {
		var buf [RowSize]byte
		if err := SerializeRow(row, buf[:]); err != nil {
			t.Fatalf("SerializeRow: %v", err)
		}
		leaf.InsertCellAt(i, row.ID, buf[:])
	}

	data := leaf.Serialize()
	got, err := DeserializeLeafNode(3, data)
	if err != nil {
		t.Fatalf("DeserializeLeafNode: %v", err)
	}

	if got.CellCount() != 2 {
		t.Fatalf("expected 2 cells, got %d", got.CellCount())
	}
	if !got.IsRoot() {
		t.Errorf("expected is_root=true")
	}
	if got.ParentPageNum() != 3 {
		t.Errorf("expected parent_page_num=3, got %d", got.ParentPageNum())
	}
	if got.NextLeaf() != 9 {
		t.Errorf("expected next_leaf=9, got %d", got.NextLeaf())
	}

	for i, row := range rows {
		if got.Key(i) != row.ID {
			t.Errorf("cell %d: expected key %d, got %d", i, row.ID, got.Key(i))
		}
		decoded, err := DeserializeRow(got.Value(i))
		if err != nil {
			t.Fatalf("DeserializeRow: %v", err)
		}
		if decoded != row {
			t.Errorf("cell %d: got %+v, want %+v", i, decoded, row)
		}
	}
}

func TestLeafNodeFindCell(t *testing.T) {
	leaf := NewLeafNode(0, true)
	var buf [RowSize]byte
	for _, id := range []uint64{10, 20, 30} {
		leaf.InsertCellAt(leaf.CellCount(), id, buf[:])
	}

	cases := []struct {
		key  uint64
		want int
	}{
		{5, 0},
		{10, 0},
		{15, 1},
		{20, 1},
		{25, 2},
		{30, 2},
		{35, 3},
	}
	for _, c := range cases {
		if got := leaf.FindCell(c.key); got != c.want {
			t.Errorf("FindCell(%d) = %d, want %d", c.key, got, c.want)
		}
	}
}

func TestInternalNodeSerializeRoundTrip(t *testing.T) {
	in := NewInternalNode(5, false)
	in.SetParentPageNum(1)
	in.InsertKeyChildAt(0, 10, 2)
	in.InsertKeyChildAt(1, 20, 3)
	in.SetRightChild(4)

	data := in.Serialize()
	got, err := DeserializeInternalNode(5, data)
	if err != nil {
		t.Fatalf("DeserializeInternalNode: %v", err)
	}

	if got.KeyCount() != 2 {
		t.Fatalf("expected 2 keys, got %d", got.KeyCount())
	}
	if got.InternalKey(0) != 10 || got.InternalChild(0) != 2 {
		t.Errorf("cell 0: got (%d, %d)", got.InternalKey(0), got.InternalChild(0))
	}
	if got.InternalKey(1) != 20 || got.InternalChild(1) != 3 {
		t.Errorf("cell 1: got (%d, %d)", got.InternalKey(1), got.InternalChild(1))
	}
	if got.RightChild() != 4 {
		t.Errorf("expected right_child=4, got %d", got.RightChild())
	}
	if got.ParentPageNum() != 1 {
		t.Errorf("expected parent_page_num=1, got %d", got.ParentPageNum())
	}
}

func TestInternalNodeFindChild(t *testing.T) {
	in := NewInternalNode(0, true)
	in.InsertKeyChildAt(0, 10, 100)
	in.InsertKeyChildAt(1, 20, 200)
	in.SetRightChild(300)

	cases := []struct {
		key        uint64
		wantIdx    int
		wantChild  uint64
	}{
		{5, 0, 100},
		{10, 0, 100},
		{15, 1, 200},
		{20, 1, 200},
		{25, 2, 300},
	}
	for _, c := range cases {
		idx := in.FindChild(c.key)
		if idx != c.wantIdx {
			t.Errorf("FindChild(%d) index = %d, want %d", c.key, idx, c.wantIdx)
		}
		if child := in.ChildAt(idx); child != c.wantChild {
			t.Errorf("ChildAt(FindChild(%d)) = %d, want %d", c.key, child, c.wantChild)
		}
	}
}

func TestInternalNodeUpdateKey(t *testing.T) {
	in := NewInternalNode(0, true)
	in.InsertKeyChildAt(0, 10, 100)
	in.SetRightChild(200)

	in.UpdateKey(10, 7)
	if in.InternalKey(0) != 7 {
		t.Errorf("expected updated key 7, got %d", in.InternalKey(0))
	}
}

func TestDeserializeNodeDispatch(t *testing.T) {
	leaf := NewLeafNode(1, true)
	n, err := DeserializeNode(1, leaf.Serialize())
	if err != nil {
		t.Fatalf("DeserializeNode: %v", err)
	}
	if !n.IsLeaf() {
		t.Errorf("expected leaf dispatch")
	}

	in := NewInternalNode(2, false)
	in.InsertKeyChildAt(0, 1, 1)
	in.SetRightChild(3)
	n, err = DeserializeNode(2, in.Serialize())
	if err != nil {
		t.Fatalf("DeserializeNode: %v", err)
	}
	if n.IsLeaf() {
		t.Errorf("expected internal dispatch")
	}
}

func TestDeserializeNodeCorruptType(t *testing.T) {
	buf := make([]byte, PageSize)
	buf[nodeTypeOffset] = 0xFF
	if _, err := DeserializeNode(0, buf); err == nil {
		t.Fatalf("expected error for unknown node type")
	}
}
