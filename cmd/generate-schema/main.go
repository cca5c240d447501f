// Command generate-schema writes the JSON schema of the Storfiler
// configuration file, for editor completion and CI linting of configs.
//
//	generate-schema [-o config.schema.json]
//
// "-o -" writes to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/storfiler/pkg/config"
)

func main() {
	out := flag.String("o", "config.schema.json", "output file, or - for stdout")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "generate-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(out string) error {
	if out == "-" {
		return config.WriteSchema(os.Stdout)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		return err
	}
	fmt.Printf("JSON schema written to %s\n", out)
	return nil
}

func write(wc io.WriteCloser) error {
	if err := config.WriteSchema(wc); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
