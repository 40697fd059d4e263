package main

import (
	"caspfetch/cmd/casp-target-fetch/commands"
	"caspfetch/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
