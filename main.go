// main is the entry point for the matchengine CLI.
package main

import (
	"github.com/tradecrew/matchengine/cmd"
	"github.com/tradecrew/matchengine/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
}
