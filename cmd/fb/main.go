// Copyright 2026 FoodBlock Protocol
//
// fb - command-line client for the FoodBlock HTTP API
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/foodxdevelopment/foodblock/internal/fbcli"
)

var knownCommands = map[string]bool{
	"create": true, "get": true, "query": true,
	"tree": true, "chain": true, "info": true, "help": true,
}

func main() {
	server := flag.String("server", os.Getenv("FOODBLOCK_URL"), "FoodBlock server URL")
	ref := flag.String("ref", "", "ref role to filter by (query)")
	refValue := flag.String("ref_value", "", "hash to match against --ref (query)")
	limit := flag.Int("limit", 0, "max results (query)")
	heads := flag.Bool("heads", false, "restrict to current chain heads (query)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println(fbcli.Usage())
		return
	}

	cmd, rest := args[0], args[1:]
	if !knownCommands[cmd] {
		// No recognized subcommand: the whole argument list is free text
		// for an implicit create (§6.4).
		cmd, rest = "create", args
	}

	opts := fbcli.Options{
		Server: *server,
		Ref:    *ref,
		RefVal: *refValue,
		Limit:  *limit,
		Heads:  *heads,
	}
	if opts.Server == "" {
		opts.Server = fbcli.DefaultServer
	}

	out, err := fbcli.Run(cmd, rest, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
