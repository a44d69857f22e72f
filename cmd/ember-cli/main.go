// Command ember-cli issues one get/set/rm request against an emberd server
// and exits non-zero on failure, matching original_source's kvs.rs
// subcommand shape (operation, key, optional value, --addr).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/emberkv/ember/internal/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4004", "server address")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ember-cli [-addr host:port] get|set|rm key [value]")
		os.Exit(2)
	}

	operation, key := args[0], args[1]
	c := client.New(*addr)

	var err error
	switch operation {
	case "get":
		var value string
		var ok bool
		value, ok, err = c.Get(key)
		if err == nil {
			if !ok {
				fmt.Println("Key not found")
				os.Exit(1)
			}
			fmt.Println(value)
		}

	case "set":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: ember-cli set key value")
			os.Exit(2)
		}
		err = c.Set(key, args[2])

	case "rm":
		err = c.Remove(key)
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "key not found") {
			fmt.Fprintln(os.Stderr, "Key not found")
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown operation %q\n", operation)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
