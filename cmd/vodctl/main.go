package main

import (
	"fmt"
	"os"

	"github.com/vodforge/vodforge/internal/vodctl"
)

func main() {
	if err := vodctl.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
