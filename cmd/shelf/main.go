// Command shelf is the command-line front end of the shelfmark library.
package main

import "github.com/mesh-intelligence/shelfmark/internal/cli"

func main() {
	cli.Execute()
}
