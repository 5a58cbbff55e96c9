package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
