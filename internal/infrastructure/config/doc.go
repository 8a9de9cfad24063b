// Package config handles loading and validating Bakery API configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (BAKERY_*)
//   - Validation of required fields per database driver
//   - Default value handling
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
//
// The store connection string should be supplied through BAKERY_DATABASE_DSN
// (or DATABASE_URL) rather than committed to the YAML file.
package config
