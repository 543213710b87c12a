package main

import (
	"fmt"
	"io"

	"github.com/jward/heapdb"
)

// printResult renders a query result: header line, separator, one line per
// row, then the message. Values print as INT decimal, TEXT double-quoted,
// BOOLEAN true/false.
func printResult(w io.Writer, result *heapdb.QueryResult) {
	if result.ColumnNames != nil {
		for _, name := range result.ColumnNames {
			fmt.Fprintf(w, "%s ", name)
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, "+")
		for range result.ColumnNames {
			fmt.Fprint(w, "----------+")
		}
		fmt.Fprintln(w)
		for _, row := range result.Rows {
			for _, name := range result.ColumnNames {
				fmt.Fprintf(w, "%s ", row[name])
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, result.Message)
}
