// Package docs coordinates the documentation symbol registry, the
// batch page-fetch queue, the inventory load scheduler, and the lookup
// service that ties them together.
package docs

import (
	"sort"
	"strings"

	"github.com/AbstractUmbra/doccache"
)

// forcePrefixGroups lists symbol groups that get their group name
// prefixed on same-package conflicts. The order is a fixed priority:
// when two of these groups collide, the one sorting later in this list
// is the one that gets renamed.
var forcePrefixGroups = []string{
	"term",
	"label",
	"token",
	"doc",
	"pdbcommand",
	"2to3fixer",
}

func forcePrefixIndex(group string) int {
	for i, g := range forcePrefixGroups {
		if g == group {
			return i
		}
	}
	return -1
}

// Registry owns the in-memory mapping from symbol name to DocItem
// across all loaded packages and performs name-conflict disambiguation.
// It is not safe for concurrent use; the Service serializes access.
type Registry struct {
	symbols  map[string]doccache.DocItem
	renamed  map[string][]string
	baseURLs map[string]string

	// Packages whose symbols keep the bare name on cross-package
	// conflicts, stealing it from already-registered entries.
	priority map[string]bool
}

// NewRegistry creates an empty Registry. Symbols from the given
// priority packages win bare names in cross-package conflicts.
func NewRegistry(priorityPackages ...string) *Registry {
	r := &Registry{
		symbols:  make(map[string]doccache.DocItem),
		renamed:  make(map[string][]string),
		baseURLs: make(map[string]string),
		priority: make(map[string]bool, len(priorityPackages)),
	}
	for _, pkg := range priorityPackages {
		r.priority[pkg] = true
	}
	return r
}

// Clear drops all registered symbols, renames, and base URLs.
func (r *Registry) Clear() {
	r.symbols = make(map[string]doccache.DocItem)
	r.renamed = make(map[string][]string)
	r.baseURLs = make(map[string]string)
}

// Len returns the number of registered symbols.
func (r *Registry) Len() int {
	return len(r.symbols)
}

// BaseURLs returns a copy of the package name to base URL mapping for
// all loaded packages.
func (r *Registry) BaseURLs() map[string]string {
	out := make(map[string]string, len(r.baseURLs))
	for pkg, url := range r.baseURLs {
		out[pkg] = url
	}
	return out
}

// Renamed returns the disambiguated names created from conflicts with
// the given bare name, for "similar names" hints.
func (r *Registry) Renamed(name string) []string {
	return r.renamed[name]
}

// Lookup finds the DocItem registered under name. If name is unknown
// and contains whitespace, the first word is tried as a fallback. The
// returned string is the name the item was actually found under.
func (r *Registry) Lookup(name string) (doccache.DocItem, string, bool) {
	if item, ok := r.symbols[name]; ok {
		return item, name, true
	}
	if fields := strings.Fields(name); len(fields) > 0 && fields[0] != name {
		if item, ok := r.symbols[fields[0]]; ok {
			return item, fields[0], true
		}
	}
	return doccache.DocItem{}, "", false
}

// LoadInventory registers every symbol of a package's inventory,
// disambiguating names as it goes. Groups are walked in sorted order so
// repeated loads of the same inventory produce an identical registry.
// index is invoked for every registered item so callers can associate
// items with their page (may be nil).
func (r *Registry) LoadInventory(pkg, baseURL string, inv doccache.Inventory, index func(doccache.DocItem)) {
	r.baseURLs[pkg] = baseURL

	directives := make([]string, 0, len(inv))
	for directive := range inv {
		directives = append(directives, directive)
	}
	sort.Strings(directives)

	for _, directive := range directives {
		// e.g. get "class" from "py:class"
		group := directive
		if i := strings.IndexByte(directive, ':'); i >= 0 {
			group = directive[i+1:]
		}

		for _, entry := range inv[directive] {
			name := r.EnsureUniqueName(pkg, group, entry.Name)

			relativePath, symbolID, _ := strings.Cut(entry.Location, "#")
			item := doccache.DocItem{
				Package:      pkg,
				Group:        group,
				BaseURL:      baseURL,
				RelativePath: relativePath,
				SymbolID:     symbolID,
			}
			r.symbols[name] = item
			if index != nil {
				index(item)
			}
		}
	}
}

// EnsureUniqueName resolves the conflict when name is already taken by
// another symbol, renaming either the new or the existing entry.
// The name the new symbol should be registered under is returned; when
// the existing entry was the one renamed, that is the bare name itself.
// Every rename is recorded under the original bare name.
func (r *Registry) EnsureUniqueName(pkg, group, name string) string {
	existing, ok := r.symbols[name]
	if !ok {
		return name
	}

	rename := func(prefix string, renameExtant bool) string {
		newName := prefix + "." + name
		if _, taken := r.symbols[newName]; taken {
			// Still conflicting, qualify the name further.
			if renameExtant {
				newName = existing.Package + "." + existing.Group + "." + name
			} else {
				newName = pkg + "." + group + "." + name
			}
		}

		r.renamed[name] = append(r.renamed[name], newName)

		if renameExtant {
			// Move the existing symbol out of the way instead of
			// renaming the new one; the caller overwrites the bare name.
			r.symbols[newName] = r.symbols[name]
			return name
		}
		return newName
	}

	// Conflicting packages differ: prefix with a package name. Priority
	// packages steal the bare name from the existing entry.
	if pkg != existing.Package {
		if r.priority[pkg] {
			return rename(existing.Package, true)
		}
		return rename(pkg, false)
	}

	// Same package: force-prefix groups are disambiguated by their
	// group name, the later group in the priority list losing the bare
	// name. Ties resolve toward renaming the new entry.
	if newIdx := forcePrefixIndex(group); newIdx >= 0 {
		needsMoving := false
		if existingIdx := forcePrefixIndex(existing.Group); existingIdx >= 0 {
			needsMoving = newIdx < existingIdx
		}
		if needsMoving {
			return rename(existing.Group, true)
		}
		return rename(group, false)
	}

	// Either the existing symbol's group forces a prefix, or choosing
	// which entry to rename would be arbitrary; rename the existing one.
	return rename(existing.Group, true)
}
