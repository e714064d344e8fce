package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/Schuyweiz/simple-db/storage"
)

func executeInsert(stmt *Statement, tbl *storage.Table) {
	err := tbl.Insert(stmt.RowToInsert)
	switch {
	case err == nil:
		fmt.Println("Executed.")
	case errors.Is(err, storage.ErrDuplicateKey):
		fmt.Println("Error: duplicate key.")
	case errors.Is(err, storage.ErrCapacityExceeded):
		fmt.Println("Error: table full.")
	case errors.Is(err, storage.ErrRowTooLarge):
		fmt.Println("Error: field too long.")
	default:
		fmt.Println("Error:", err)
	}
}

func executeSelect(tbl *storage.Table) {
	rows, err := tbl.Select()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, row := range rows {
		fmt.Printf("(%d %s %s)\n", row.ID, row.Username, row.Email)
	}
	fmt.Println("Executed.")
}

func executeStatement(stmt *Statement, tbl *storage.Table) {
	switch stmt.Type {
	case StatementInsert:
		executeInsert(stmt, tbl)
	case StatementSelect:
		executeSelect(tbl)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Must supply a database filename.")
		os.Exit(1)
	}

	tbl, err := storage.OpenTable(os.Args[1])
	if err != nil {
		fmt.Println("Error opening database:", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		printPrompt()
		input, err := readInput(reader)
		if err != nil {
			// EOF (e.g. piped input) ends the session like .exit.
			tbl.Close()
			os.Exit(0)
		}

		if len(input) > 0 && input[0] == '.' {
			switch handleMetaCommand(input) {
			case MetaCommandSuccess:
				tbl.Close()
				os.Exit(0)
			case MetaCommandUnrecognizedCommand:
				fmt.Println("Unknown command.")
				continue
			}
		}

		var stmt Statement
		switch prepareStatement(input, &stmt) {
		case PrepareSuccess:
		case PrepareSyntaxError:
			fmt.Println("Syntax error, could not parse statement.")
			continue
		case PrepareStringTooLong:
			fmt.Println("Error: string too long.")
			continue
		case PrepareUnrecognizedStatement:
			fmt.Printf("Unrecognized keyword at start of '%s'.\n", input)
			continue
		}

		executeStatement(&stmt, tbl)
	}
}
