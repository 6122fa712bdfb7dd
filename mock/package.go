package mock

import (
	"context"

	"github.com/AbstractUmbra/doccache"
)

var _ doccache.PackageService = (*PackageService)(nil)

// PackageService is a mock implementation of doccache.PackageService.
type PackageService struct {
	CreatePackageFn     func(ctx context.Context, pkg *doccache.Package) error
	FindPackageByNameFn func(ctx context.Context, name string) (*doccache.Package, error)
	FindPackagesFn      func(ctx context.Context) ([]*doccache.Package, error)
	DeletePackageFn     func(ctx context.Context, name string) error
}

func (s *PackageService) CreatePackage(ctx context.Context, pkg *doccache.Package) error {
	return s.CreatePackageFn(ctx, pkg)
}

func (s *PackageService) FindPackageByName(ctx context.Context, name string) (*doccache.Package, error) {
	return s.FindPackageByNameFn(ctx, name)
}

func (s *PackageService) FindPackages(ctx context.Context) ([]*doccache.Package, error) {
	return s.FindPackagesFn(ctx)
}

func (s *PackageService) DeletePackage(ctx context.Context, name string) error {
	return s.DeletePackageFn(ctx, name)
}
