// Command ferry scans, deletes, copies, moves and searches file trees.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
