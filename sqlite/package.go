package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AbstractUmbra/doccache"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ doccache.PackageService = (*PackageService)(nil)

// PackageService implements doccache.PackageService using SQLite.
type PackageService struct {
	db *DB
}

// NewPackageService creates a new PackageService.
func NewPackageService(db *DB) *PackageService {
	return &PackageService{db: db}
}

// CreatePackage creates a new package.
func (s *PackageService) CreatePackage(ctx context.Context, pkg *doccache.Package) error {
	if err := pkg.Validate(); err != nil {
		return err
	}

	if _, err := s.FindPackageByName(ctx, pkg.Name); err == nil {
		return doccache.Errorf(doccache.ECONFLICT, "package %q already exists", pkg.Name)
	} else if doccache.ErrorCode(err) != doccache.ENOTFOUND {
		return err
	}

	pkg.ID = uuid.New().String()
	pkg.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (id, name, inventory_url, base_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, pkg.ID, pkg.Name, pkg.InventoryURL, pkg.BaseURL, pkg.CreatedAt.Format(time.RFC3339))

	return err
}

// FindPackageByName retrieves a package by name.
func (s *PackageService) FindPackageByName(ctx context.Context, name string) (*doccache.Package, error) {
	var pkg doccache.Package
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, inventory_url, base_url, created_at
		FROM packages
		WHERE name = ?
	`, name).Scan(&pkg.ID, &pkg.Name, &pkg.InventoryURL, &pkg.BaseURL, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, doccache.Errorf(doccache.ENOTFOUND, "package %q not found", name)
	}
	if err != nil {
		return nil, err
	}

	pkg.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &pkg, nil
}

// FindPackages retrieves all configured packages ordered by name.
func (s *PackageService) FindPackages(ctx context.Context) ([]*doccache.Package, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, inventory_url, base_url, created_at
		FROM packages
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []*doccache.Package
	for rows.Next() {
		var pkg doccache.Package
		var createdAt string

		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.InventoryURL, &pkg.BaseURL, &createdAt); err != nil {
			return nil, err
		}

		pkg.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		pkgs = append(pkgs, &pkg)
	}

	return pkgs, rows.Err()
}

// DeletePackage permanently removes a package.
func (s *PackageService) DeletePackage(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM packages WHERE name = ?", name)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return doccache.Errorf(doccache.ENOTFOUND, "package %q not found", name)
	}

	return nil
}
