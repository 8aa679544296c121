// Command tracecat catalogs the trace bundles internal/tracewriter
// produces under a directory tree.
package main

import (
	"flag"
	"fmt"
	"os"

	"hanachan/tools/tracecat"
)

func main() {
	root := flag.String("root", ".", "directory containing trace bundles")
	flag.Parse()

	entries, err := tracecat.List(*root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	payload, err := tracecat.MarshalEntries(entries)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(payload))
}
