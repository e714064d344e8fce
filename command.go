package main

import (
	"strconv"
	"strings"

	"github.com/Schuyweiz/simple-db/storage"
)

type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognizedCommand
)

type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareUnrecognizedStatement
	PrepareSyntaxError
	PrepareStringTooLong
)

// handleMetaCommand reports MetaCommandSuccess if the input line is
// ".exit" (the caller then flushes and exits), and
// MetaCommandUnrecognizedCommand otherwise.
func handleMetaCommand(line string) MetaCommandResult {
	if strings.TrimSpace(line) == ".exit" {
		return MetaCommandSuccess
	}
	return MetaCommandUnrecognizedCommand
}

// prepareStatement tokenizes input into a Statement. insert takes
// exactly id, username, email; anything else is a syntax error.
func prepareStatement(input string, stmt *Statement) PrepareResult {
	switch {
	case strings.HasPrefix(input, "insert"):
		stmt.Type = StatementInsert
		fields := strings.Fields(input)
		if len(fields) != 4 {
			return PrepareSyntaxError
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return PrepareSyntaxError
		}
		username, email := fields[2], fields[3]
		if len(username) > storage.UsernameSize || len(email) > storage.EmailSize {
			return PrepareStringTooLong
		}
		stmt.RowToInsert = storage.Row{ID: id, Username: username, Email: email}
		return PrepareSuccess
	case input == "select":
		stmt.Type = StatementSelect
		return PrepareSuccess
	default:
		return PrepareUnrecognizedStatement
	}
}
