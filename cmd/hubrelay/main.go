package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/hubrelay/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("HUBRELAY_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
