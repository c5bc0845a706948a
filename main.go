package main

import (
	"fmt"
	"os"

	"github.com/Easy-Infra-Ltd/easy-medimate/src/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "medimate: %v\n", err)
		os.Exit(1)
	}
}
