// Command mailq runs email queue workers and inspects the queue store.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := execute(newRootCmd()); err != nil {
		os.Exit(1)
	}
}

// execute runs root and closes the store connection on every exit path.
func execute(root *cobra.Command, a *app) error {
	defer a.close()
	return root.Execute()
}
