package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the clear-cache command.
func (c *ClearCacheCmd) Run(deps *Dependencies) error {
	deleted, err := deps.Service.ClearCache(deps.Ctx, c.Name)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		return err
	}

	if !deleted {
		fmt.Fprintf(deps.Stdout, "No cached pages for %q\n", c.Name)
		return nil
	}
	if c.Name == "*" {
		fmt.Fprintln(deps.Stdout, "Cleared the entire page cache")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Cleared cached pages for %q\n", c.Name)
	return nil
}
