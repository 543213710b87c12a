package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jward/heapdb"
	"github.com/jward/heapdb/internal/sqlparse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// runShell opens the engine over the environment directory and reads SQL
// statements line by line until quit or end of input.
func runShell(cmd *cobra.Command, args []string) error {
	dir := args[0]
	logger := newLogger()

	engine, err := heapdb.New(dir)
	if err != nil {
		return err
	}
	defer engine.Close()
	logger.Info("engine opened", "dir", dir)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive && !viper.GetBool("quiet") {
		fmt.Printf("running with database environment at %s\n", dir)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("SQL> ")
		}
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch input {
		case "quit":
			return nil
		case "test":
			heapdb.SelfTest(dir, os.Stdout)
			continue
		}

		stmt, err := sqlparse.Parse(input)
		if err != nil {
			fmt.Printf("invalid SQL: %s\n%s\n", input, err)
			continue
		}
		fmt.Println(sqlparse.Unparse(stmt))

		result, err := engine.Execute(stmt)
		if err != nil {
			logger.Error("statement failed", "sql", input, "err", err)
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		printResult(os.Stdout, result)
	}
	return scanner.Err()
}
