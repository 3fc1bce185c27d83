package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iquiquesec/ciberseguridad/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "featurectl:", err)
		os.Exit(1)
	}
}
