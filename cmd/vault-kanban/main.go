package main

import (
	"os"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and maps its outcome to an exit code.
func run(args []string) int {
	colors.StructuredInfo("startup", "main", "started", nil, "", nil)
	defer cmd.Shutdown()

	err := cmd.Execute(args)
	if err != nil {
		colors.StructuredError("startup", "main", "failed", err, "", nil)
	} else {
		colors.StructuredInfo("startup", "main", "completed", nil, "", nil)
	}
	return errors.NewDefaultCLIHandler().Report(err)
}
