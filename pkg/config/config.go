package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
)

const (
	DefaultConfigPath = "/etc/policyctl"
	ConfigFileName    = "policyctl.yml"

	// EnvPrefix is the prefix of every environment variable read by Load.
	EnvPrefix = "PRISMA_CLOUD"

	DefaultRequestTimeout = 30 * time.Second

	redacted = "(redacted)"
)

// ErrConfiguration is returned when the configuration is incomplete or invalid.
var ErrConfiguration = errors.New("invalid configuration")

// Config holds the settings of one run. It is built once by Load and passed
// by value; nothing in it changes afterwards.
type Config struct {
	// APIURL is the base URL of the CSPM API, e.g. https://api.prismacloud.io
	APIURL string `yaml:"api_url" json:"api_url"`

	AccessKey string `yaml:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`

	// Endpoints are the API paths, relative to APIURL
	Endpoints prisma.Endpoints `yaml:"endpoints" json:"endpoints"`

	// PolicyType is the class of every policy created by the run
	PolicyType prisma.PolicyType `yaml:"policy_type" json:"policy_type"`

	SearchStrategy SearchStrategy `yaml:"search_strategy" json:"search_strategy"`

	// CombinedSearchConfirmed must be set to use SearchStrategyCombined
	CombinedSearchConfirmed bool `yaml:"combined_search_confirmed" json:"combined_search_confirmed"`

	// DeriveSavedSearchName fills empty saved search names with "<policy name> Query"
	DeriveSavedSearchName bool `yaml:"derive_saved_search_name" json:"derive_saved_search_name"`

	// DefaultRecommendation is used for records without a recommendation
	DefaultRecommendation string `yaml:"default_recommendation" json:"default_recommendation"`

	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// sources tracks where each value came from
	sources map[string]string

	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// envConfig is the environment layer. Unset variables leave the zero value.
type envConfig struct {
	APIURL                  string        `envconfig:"API_URL"`
	AccessKey               string        `envconfig:"ACCESS_KEY"`
	SecretKey               string        `envconfig:"SECRET_KEY"`
	PolicyType              string        `envconfig:"POLICY_TYPE"`
	SearchStrategy          string        `envconfig:"SEARCH_STRATEGY"`
	CombinedSearchConfirmed *bool         `envconfig:"COMBINED_SEARCH_CONFIRMED"`
	DeriveSavedSearchName   *bool         `envconfig:"DERIVE_SAVED_SEARCH_NAME"`
	DefaultRecommendation   string        `envconfig:"DEFAULT_RECOMMENDATION"`
	RequestTimeout          time.Duration `envconfig:"REQUEST_TIMEOUT"`
	LoginPath               string        `envconfig:"LOGIN_PATH"`
	ConfigSearchPath        string        `envconfig:"CONFIG_SEARCH_PATH"`
	PermissionSearchPath    string        `envconfig:"PERMISSION_SEARCH_PATH"`
	SearchHistoryPath       string        `envconfig:"SEARCH_HISTORY_PATH"`
	PolicyPath              string        `envconfig:"POLICY_PATH"`
}

func newDefault() *Config {
	return &Config{
		Endpoints:      prisma.DefaultEndpoints(),
		PolicyType:     prisma.PolicyTypeConfig,
		SearchStrategy: SearchStrategySeparate,
		RequestTimeout: DefaultRequestTimeout,
		sources:        make(map[string]string),
	}
}

// Load builds the configuration from the config file and the environment.
// Environment variables take precedence over file values.
//
// When path is empty the file is looked up as policyctl.yml in
// $PRISMA_CLOUD_CONFIG_PATH, or DefaultConfigPath, and may be absent. An
// explicit path must exist.
//
// Load does not validate; call Validate before using the result.
func Load(path string) (Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	explicit := path != ""
	if !explicit {
		dir := os.Getenv(EnvPrefix + "_CONFIG_PATH")
		if dir == "" {
			dir = DefaultConfigPath
		}
		path = filepath.Join(dir, ConfigFileName)
	}
	config.configFilePath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return Config{}, fmt.Errorf("%w: failed to parse config file %s: %w", ErrConfiguration, path, err)
		}
		config.applyFileConfig(&fileConfig)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
	}

	if err := config.applyEnvConfig(); err != nil {
		return Config{}, err
	}

	return *config, nil
}

func attributeNames() []string {
	return []string{
		"api_url", "access_key", "secret_key",
		"endpoints.login", "endpoints.config_search", "endpoints.permission_search",
		"endpoints.search_history", "endpoints.policy",
		"policy_type", "search_strategy", "combined_search_confirmed",
		"derive_saved_search_name", "default_recommendation", "request_timeout",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	setString := func(name string, dst *string, val string) {
		if val != "" {
			*dst = val
			c.sources[name] = "file"
		}
	}
	setString("api_url", &c.APIURL, file.APIURL)
	setString("access_key", &c.AccessKey, file.AccessKey)
	setString("secret_key", &c.SecretKey, file.SecretKey)
	setString("endpoints.login", &c.Endpoints.Login, file.Endpoints.Login)
	setString("endpoints.config_search", &c.Endpoints.ConfigSearch, file.Endpoints.ConfigSearch)
	setString("endpoints.permission_search", &c.Endpoints.PermissionSearch, file.Endpoints.PermissionSearch)
	setString("endpoints.search_history", &c.Endpoints.SearchHistory, file.Endpoints.SearchHistory)
	setString("endpoints.policy", &c.Endpoints.Policy, file.Endpoints.Policy)
	setString("default_recommendation", &c.DefaultRecommendation, file.DefaultRecommendation)

	if file.PolicyType != prisma.PolicyTypeConfig {
		c.PolicyType = file.PolicyType
		c.sources["policy_type"] = "file"
	}
	if file.SearchStrategy != SearchStrategySeparate {
		c.SearchStrategy = file.SearchStrategy
		c.sources["search_strategy"] = "file"
	}
	if file.CombinedSearchConfirmed {
		c.CombinedSearchConfirmed = true
		c.sources["combined_search_confirmed"] = "file"
	}
	if file.DeriveSavedSearchName {
		c.DeriveSavedSearchName = true
		c.sources["derive_saved_search_name"] = "file"
	}
	if file.RequestTimeout != 0 {
		c.RequestTimeout = file.RequestTimeout
		c.sources["request_timeout"] = "file"
	}
}

func (c *Config) applyEnvConfig() error {
	var env envConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	setString := func(name string, dst *string, val string) {
		if val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	setString("api_url", &c.APIURL, env.APIURL)
	setString("access_key", &c.AccessKey, env.AccessKey)
	setString("secret_key", &c.SecretKey, env.SecretKey)
	setString("endpoints.login", &c.Endpoints.Login, env.LoginPath)
	setString("endpoints.config_search", &c.Endpoints.ConfigSearch, env.ConfigSearchPath)
	setString("endpoints.permission_search", &c.Endpoints.PermissionSearch, env.PermissionSearchPath)
	setString("endpoints.search_history", &c.Endpoints.SearchHistory, env.SearchHistoryPath)
	setString("endpoints.policy", &c.Endpoints.Policy, env.PolicyPath)
	setString("default_recommendation", &c.DefaultRecommendation, env.DefaultRecommendation)

	if env.PolicyType != "" {
		pt, err := prisma.PolicyTypeString(env.PolicyType)
		if err != nil {
			return fmt.Errorf("%w: %s_POLICY_TYPE: %w", ErrConfiguration, EnvPrefix, err)
		}
		c.PolicyType = pt
		c.sources["policy_type"] = "environment"
	}
	if env.SearchStrategy != "" {
		s, err := SearchStrategyString(env.SearchStrategy)
		if err != nil {
			return fmt.Errorf("%w: %s_SEARCH_STRATEGY: %w", ErrConfiguration, EnvPrefix, err)
		}
		c.SearchStrategy = s
		c.sources["search_strategy"] = "environment"
	}
	if env.CombinedSearchConfirmed != nil {
		c.CombinedSearchConfirmed = *env.CombinedSearchConfirmed
		c.sources["combined_search_confirmed"] = "environment"
	}
	if env.DeriveSavedSearchName != nil {
		c.DeriveSavedSearchName = *env.DeriveSavedSearchName
		c.sources["derive_saved_search_name"] = "environment"
	}
	if env.RequestTimeout != 0 {
		c.RequestTimeout = env.RequestTimeout
		c.sources["request_timeout"] = "environment"
	}
	return nil
}

// ConfigFilePath returns the path the config file was looked up at
func (c Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c Config) Source(name string) string {
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Credentials returns the key pair used to log in.
func (c Config) Credentials() prisma.Credentials {
	return prisma.Credentials{AccessKey: c.AccessKey, SecretKey: c.SecretKey}
}

// ClientOptions returns the options for a prisma.Client talking to APIURL.
func (c Config) ClientOptions() prisma.Options {
	return prisma.Options{
		BaseURL:   c.APIURL,
		Endpoints: c.Endpoints,
		Timeout:   c.RequestTimeout,
	}
}

// Validate reports every problem with the configuration. All returned errors
// match ErrConfiguration.
func (c Config) Validate() error {
	var errs error
	required := func(envName, value string) {
		if strings.TrimSpace(value) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s_%s is required", ErrConfiguration, EnvPrefix, envName))
		}
	}
	required("API_URL", c.APIURL)
	required("ACCESS_KEY", c.AccessKey)
	required("SECRET_KEY", c.SecretKey)

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: api_url %q is not an http(s) URL", ErrConfiguration, c.APIURL))
		}
	}

	for name, path := range map[string]string{
		"login":             c.Endpoints.Login,
		"config_search":     c.Endpoints.ConfigSearch,
		"permission_search": c.Endpoints.PermissionSearch,
		"search_history":    c.Endpoints.SearchHistory,
		"policy":            c.Endpoints.Policy,
	} {
		if path == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: endpoints.%s is empty", ErrConfiguration, name))
		}
	}

	if !c.PolicyType.IsAPolicyType() {
		errs = multierr.Append(errs, fmt.Errorf("%w: invalid policy_type %d", ErrConfiguration, c.PolicyType))
	}
	if !c.SearchStrategy.IsASearchStrategy() {
		errs = multierr.Append(errs, fmt.Errorf("%w: invalid search_strategy %d", ErrConfiguration, c.SearchStrategy))
	}
	if c.SearchStrategy == SearchStrategyCombined && !c.CombinedSearchConfirmed {
		errs = multierr.Append(errs, fmt.Errorf("%w: search_strategy combined requires combined_search_confirmed: true", ErrConfiguration))
	}
	if c.RequestTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: request_timeout must be positive", ErrConfiguration))
	}

	return errs
}

// Attributes returns all configuration attributes with their values and
// sources. Keys are redacted.
func (c Config) Attributes() []Attribute {
	secret := func(v string) string {
		if v == "" {
			return ""
		}
		return redacted
	}
	attr := func(name, value string) Attribute {
		return Attribute{Name: name, Value: value, Source: c.Source(name)}
	}
	return []Attribute{
		attr("api_url", c.APIURL),
		attr("access_key", secret(c.AccessKey)),
		attr("secret_key", secret(c.SecretKey)),
		attr("endpoints.login", c.Endpoints.Login),
		attr("endpoints.config_search", c.Endpoints.ConfigSearch),
		attr("endpoints.permission_search", c.Endpoints.PermissionSearch),
		attr("endpoints.search_history", c.Endpoints.SearchHistory),
		attr("endpoints.policy", c.Endpoints.Policy),
		attr("policy_type", c.PolicyType.String()),
		attr("search_strategy", c.SearchStrategy.String()),
		attr("combined_search_confirmed", strconv.FormatBool(c.CombinedSearchConfirmed)),
		attr("derive_saved_search_name", strconv.FormatBool(c.DeriveSavedSearchName)),
		attr("default_recommendation", c.DefaultRecommendation),
		attr("request_timeout", c.RequestTimeout.String()),
	}
}

// FormatText returns a text representation of the configuration
func (c Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
