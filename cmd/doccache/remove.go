package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the remove command.
func (c *RemoveCmd) Run(deps *Dependencies) error {
	if err := deps.Service.RemovePackage(deps.Ctx, c.Name); err != nil {
		if doccache.ErrorCode(err) == doccache.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: package %q not found. Use 'doccache list' to see registered packages.\n", c.Name)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed package %q and its cached pages\n", c.Name)
	return nil
}
