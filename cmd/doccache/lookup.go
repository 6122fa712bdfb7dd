package main

import (
	"fmt"

	"github.com/AbstractUmbra/doccache"
)

// Run executes the lookup command.
func (c *LookupCmd) Run(deps *Dependencies) error {
	result, err := deps.Service.Resolve(deps.Ctx, c.Symbol)
	if err != nil {
		if doccache.ErrorCode(err) == doccache.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: symbol %q not found. Use 'doccache list' to see loaded packages.\n", c.Symbol)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", doccache.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s\n%s\n\n%s\n", result.Name, result.URL, result.Markdown)
	if len(result.SimilarNames) > 0 {
		fmt.Fprintf(deps.Stdout, "\nSimilar names:\n")
		for _, name := range result.SimilarNames {
			fmt.Fprintf(deps.Stdout, "  %s\n", name)
		}
	}
	return nil
}
