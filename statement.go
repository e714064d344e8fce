package main

import (
	"github.com/Schuyweiz/simple-db/storage"
)

type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

type Statement struct {
	Type        StatementType
	RowToInsert storage.Row
}
