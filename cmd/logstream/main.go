// Command logstream exercises a log stream from the command line: a load
// generator with live configuration reload and Prometheus metrics, a file
// hexdumper and a listing of the known levels.
package main

import (
	"os"
)

func main() {
	if err := RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
