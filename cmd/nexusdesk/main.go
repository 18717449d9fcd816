package main

import (
	"fmt"
	"os"

	"github.com/xiaot623/nexusdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
