// Command loadout organises game plugins into ordered group hierarchies.
package main

import "github.com/mesh-intelligence/loadout/internal/cli"

func main() {
	cli.Execute()
}
