// Package config provides configuration management for policyctl.
//
// This package loads the settings of a run from a YAML file and environment
// variables and validates them.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Configuration file (optional, policyctl.yml)
//   - Environment variables (take precedence)
//
// # Key Configuration Options
//
//   - PRISMA_CLOUD_API_URL: Base URL of the API (required)
//   - PRISMA_CLOUD_ACCESS_KEY: Access key id (required)
//   - PRISMA_CLOUD_SECRET_KEY: Secret key (required)
//   - PRISMA_CLOUD_POLICY_TYPE: config or iam
//   - PRISMA_CLOUD_SEARCH_STRATEGY: separate or combined
//   - PRISMA_CLOUD_REQUEST_TIMEOUT: Per request timeout, e.g. 30s
//   - PRISMA_CLOUD_CONFIG_PATH: Directory holding policyctl.yml
//
// There are no built-in credentials. A missing key is reported by Validate as
// ErrConfiguration.
package config
