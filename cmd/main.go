package main

import (
	"fmt"
	"os"

	"github.com/ostafen/hccspart/cmd/cmd"
	"github.com/ostafen/hccspart/internal/env"
)

func main() {
	PrintLogo()

	os.Exit(cmd.ExitCode(cmd.Execute()))
}

// PrintLogo writes the banner to stderr.
func PrintLogo() {
	w := os.Stderr
	fmt.Fprintf(w, "%s - ", env.AppName)
	fmt.Fprintln(w, "RISC iX partition table tool for IDE disc images")
	fmt.Fprintf(w, "Version:   %s\n", env.Version)
	fmt.Fprintf(w, "Commit:    %s\n", env.CommitHash)
	fmt.Fprintf(w, "Build Time: %s\n", env.BuildTime)
	fmt.Fprintln(w)
}
