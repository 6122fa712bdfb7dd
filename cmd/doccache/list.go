package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	pkgs, err := deps.Packages.FindPackages(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		return err
	}

	if len(pkgs) == 0 {
		fmt.Fprintln(deps.Stdout, "No packages registered. Use 'doccache add' to register one.")
		return nil
	}

	for _, pkg := range pkgs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", pkg.Name, pkg.InventoryURL, pkg.BaseURLOrDefault())
	}
	return nil
}
