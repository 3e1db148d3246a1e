// The main package for the policyd executable.
package main

import (
	"github.com/coretrust/policyd/cmd"
)

func main() {
	cmd.Execute()
}
