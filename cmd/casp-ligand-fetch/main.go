package main

import (
	"caspfetch/cmd/casp-ligand-fetch/commands"
	"caspfetch/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
