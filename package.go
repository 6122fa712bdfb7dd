package doccache

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// packageNameRE restricts package names to characters that are safe to
// embed in cache keys and symbol prefixes.
var packageNameRE = regexp.MustCompile(`^[a-z0-9_]+$`)

// Package represents a documentation package whose inventory should be
// loaded into the symbol registry.
type Package struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	InventoryURL string    `json:"inventoryUrl"`
	BaseURL      string    `json:"baseUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate returns an error if the package contains invalid fields.
func (p *Package) Validate() error {
	if !packageNameRE.MatchString(p.Name) {
		return Errorf(EINVALID, "package name must only use the _, 0-9, and a-z characters")
	}
	if p.InventoryURL == "" {
		return Errorf(EINVALID, "package inventory URL required")
	}
	if p.BaseURL != "" && !strings.HasSuffix(p.BaseURL, "/") {
		return Errorf(EINVALID, "package base URL must end with a slash")
	}
	return nil
}

// BaseURLOrDefault returns the configured base URL, or one derived from
// the inventory URL by stripping its last path segment.
func (p *Package) BaseURLOrDefault() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return BaseURLFromInventoryURL(p.InventoryURL)
}

// BaseURLFromInventoryURL derives a documentation base URL from an
// objects.inv URL by removing the last path segment.
func BaseURLFromInventoryURL(inventoryURL string) string {
	trimmed := strings.TrimSuffix(inventoryURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i+1]
	}
	return trimmed + "/"
}

// PackageService represents the durable registry of configured
// packages. Admin add/remove operations survive process restarts
// through it.
type PackageService interface {
	// CreatePackage creates a new package.
	// Returns ECONFLICT if a package with the same name exists.
	CreatePackage(ctx context.Context, pkg *Package) error

	// FindPackageByName retrieves a package by name.
	// Returns ENOTFOUND if the package does not exist.
	FindPackageByName(ctx context.Context, name string) (*Package, error)

	// FindPackages retrieves all configured packages ordered by name.
	FindPackages(ctx context.Context) ([]*Package, error)

	// DeletePackage permanently removes a package.
	// Returns ENOTFOUND if the package does not exist.
	DeletePackage(ctx context.Context, name string) error
}
