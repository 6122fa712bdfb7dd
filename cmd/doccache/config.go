package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AbstractUmbra/doccache"
	"github.com/spf13/viper"
)

// PackageSeed is a documentation package declared in the config file.
type PackageSeed struct {
	Name         string `mapstructure:"name"`
	InventoryURL string `mapstructure:"inventory_url"`
	BaseURL      string `mapstructure:"base_url"`
}

// Config is the optional doccache.yaml configuration.
type Config struct {
	Packages         []PackageSeed `mapstructure:"packages"`
	PriorityPackages []string      `mapstructure:"priority_packages"`
}

// LoadConfig reads doccache.yaml from path, or from the working
// directory and ~/.doccache when path is empty. A missing config file
// is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("doccache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".doccache"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SeedPackages inserts config-declared packages that are not yet in
// the store. Already-registered names are left untouched.
func SeedPackages(ctx context.Context, packages doccache.PackageService, cfg *Config) error {
	for _, seed := range cfg.Packages {
		pkg := &doccache.Package{
			Name:         seed.Name,
			InventoryURL: seed.InventoryURL,
			BaseURL:      seed.BaseURL,
		}
		if err := pkg.Validate(); err != nil {
			return err
		}
		err := packages.CreatePackage(ctx, pkg)
		if err != nil && doccache.ErrorCode(err) != doccache.ECONFLICT {
			return err
		}
	}
	return nil
}
