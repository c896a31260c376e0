// Package config handles loading and validating light bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (LIGHTBRIDGE_*)
//   - Deriving light command topics from state topics
//   - Validation of required fields, collecting every failure
//
// Security Considerations:
//   - Broker credentials and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, l := range cfg.Lights {
//	    fmt.Println(l.Name, l.CommandTopic)
//	}
package config
