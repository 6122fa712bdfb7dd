package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	if err := deps.Service.AddPackage(deps.Ctx, c.Name, c.InventoryURL, c.BaseURL); err != nil {
		switch doccache.ErrorCode(err) {
		case doccache.ECONFLICT:
			fmt.Fprintf(deps.Stderr, "error: package %q already exists. Remove it first to change its URLs.\n", c.Name)
		case doccache.EINVALID:
			fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		case doccache.EUNAVAILABLE:
			fmt.Fprintf(deps.Stderr, "error: could not fetch the inventory: %s\n", doccache.ErrorMessage(err))
		default:
			fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added package %q (%s)\n", c.Name, c.InventoryURL)
	return nil
}
