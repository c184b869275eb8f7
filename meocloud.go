// Command line client for MEO Cloud storage
package main

import (
	"github.com/meocloud-go/meocloud/cmd"
	_ "github.com/meocloud-go/meocloud/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
