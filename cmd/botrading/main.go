package main

import (
	"os"

	"github.com/DVARGAS117/Botrading-sub003/cmd/botrading/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
