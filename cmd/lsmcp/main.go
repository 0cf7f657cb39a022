// Command lsmcp bridges Model Context Protocol clients to Language Server
// Protocol servers.
package main

import (
	"fmt"
	"os"

	"github.com/YZTangent/lsmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
