// Command convo-analyzer extracts action items from conversations, code and notes.
package main

import (
	"os"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
