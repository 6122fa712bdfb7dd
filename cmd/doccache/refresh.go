package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the refresh command.
func (c *RefreshCmd) Run(deps *Dependencies) error {
	added, removed, err := deps.Service.Refresh(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		return err
	}

	loaded := deps.Service.BaseURLs()
	fmt.Fprintf(deps.Stdout, "Refreshed %d packages\n", len(loaded))
	for _, name := range added {
		fmt.Fprintf(deps.Stdout, "  + %s\n", name)
	}
	for _, name := range removed {
		fmt.Fprintf(deps.Stdout, "  - %s\n", name)
	}
	return nil
}
