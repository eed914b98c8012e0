package main

import (
	"fmt"
	"log"
	"os"
)

const usage = `usage: cms-admin <command> [flags]

commands:
  serve      run the dashboard API (default)
  template   write an empty schedule workbook
  import     parse a filled schedule workbook and optionally submit it
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "template":
		err = runTemplate(args)
	case "import":
		err = runImport(args)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		log.Fatalf("Unknown command: %s", cmd)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}
