package main

import (
	"context"
	"os"

	"github.com/tendermint/limitorder/cmd/limitorder/commands"
	"github.com/tendermint/limitorder/libs/cli"
)

func main() {
	if err := cli.RunWithTrace(context.Background(), commands.NewRootCmd()); err != nil {
		os.Exit(1)
	}
}
