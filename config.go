package nl2sql

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Store backends selectable via store.backend.
const (
	StoreBackendPinecone = "pinecone"
	StoreBackendMemory   = "memory"
)

// Validation modes for generated SQL.
const (
	ValidationNone    = "none"
	ValidationStatic  = "static"
	ValidationExplain = "explain"
)

// Config is the root configuration structure (nl2sql.yaml)
type Config struct {
	Server     ServerConfig        `yaml:"server"`
	OpenAI     OpenAIConfig        `yaml:"openai"`
	Pinecone   PineconeConfig      `yaml:"pinecone"`
	Store      StoreConfig         `yaml:"store"`
	Schema     SchemaConfig        `yaml:"schema"`
	Generation GenerationConfig    `yaml:"generation"`
	Databases  map[string]Database `yaml:"databases"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// OpenAIConfig carries chat and embedding model settings.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
	BaseURL    string `yaml:"base_url"`
}

// PineconeConfig carries the vector index settings.
type PineconeConfig struct {
	APIKey    string `yaml:"api_key"`
	Index     string `yaml:"index"`
	Cloud     string `yaml:"cloud"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dimension int    `yaml:"dimension"`
	Metric    string `yaml:"metric"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// SchemaConfig controls DDL loading and chunk size caps.
type SchemaConfig struct {
	Path               string `yaml:"path"`
	MaxColumnLines     int    `yaml:"max_column_lines"`
	MaxConstraintLines int    `yaml:"max_constraint_lines"`
	MaxChunkChars      int    `yaml:"max_chunk_chars"`
}

// GenerationConfig controls retrieval size, model temperature, and the
// post-generation guard.
type GenerationConfig struct {
	TopK        int         `yaml:"top_k"`
	Temperature float32     `yaml:"temperature"`
	Validation  string      `yaml:"validation"`
	Database    string      `yaml:"database"` // databases entry used by explain validation
	Rules       []ScopeRule `yaml:"rules"`
}

// ScopeRule appends a prompt line when its CEL condition evaluates true
// against the request parameters.
type ScopeRule struct {
	Name   string `yaml:"name"`
	When   string `yaml:"when"`
	Prompt string `yaml:"prompt"`
}

// Database is a named connection used by pull and explain validation.
type Database struct {
	Connection string `yaml:"connection"`
	Driver     string `yaml:"driver"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Environment-only operation, as the container runs it
		config := getDefaultConfig()
		expandConfigEnvVars(config)
		applyEnvOverrides(config)

		if err := validateConfig(config); err != nil {
			return nil, err
		}

		return config, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	// Expand environment variables
	expandConfigEnvVars(&config)

	// Environment values take precedence so the container contract keeps
	// working without a config file
	applyEnvOverrides(&config)

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	validBackends := map[string]bool{
		StoreBackendPinecone: true,
		StoreBackendMemory:   true,
	}
	if config.Store.Backend != "" && !validBackends[config.Store.Backend] {
		return fmt.Errorf("%w: invalid store backend '%s': must be one of pinecone, memory", ErrConfigValidation, config.Store.Backend)
	}

	validModes := map[string]bool{
		ValidationNone:    true,
		ValidationStatic:  true,
		ValidationExplain: true,
	}
	if config.Generation.Validation != "" && !validModes[config.Generation.Validation] {
		return fmt.Errorf("%w: invalid validation mode '%s': must be one of none, static, explain", ErrConfigValidation, config.Generation.Validation)
	}

	if config.Generation.Validation == ValidationExplain {
		if config.Generation.Database == "" {
			return fmt.Errorf("%w: generation.database is required when validation is 'explain'", ErrConfigValidation)
		}

		if _, ok := config.Databases[config.Generation.Database]; !ok {
			return fmt.Errorf("%w: generation.database '%s' is not defined under databases", ErrConfigValidation, config.Generation.Database)
		}
	}

	if config.Generation.TopK < 0 {
		return fmt.Errorf("%w: generation.top_k must be positive", ErrConfigValidation)
	}

	if config.Generation.Temperature < 0 || config.Generation.Temperature > 2 {
		return fmt.Errorf("%w: generation.temperature must be between 0 and 2", ErrConfigValidation)
	}

	validMetrics := map[string]bool{
		"cosine":     true,
		"dotproduct": true,
		"euclidean":  true,
	}
	if config.Pinecone.Metric != "" && !validMetrics[config.Pinecone.Metric] {
		return fmt.Errorf("%w: invalid pinecone metric '%s': must be one of cosine, dotproduct, euclidean", ErrConfigValidation, config.Pinecone.Metric)
	}

	if config.Pinecone.Dimension < 0 {
		return fmt.Errorf("%w: pinecone.dimension must be positive", ErrConfigValidation)
	}

	for i, rule := range config.Generation.Rules {
		if rule.When == "" {
			return fmt.Errorf("%w: generation rule %d: 'when' expression is required", ErrConfigValidation, i)
		}

		if rule.Prompt == "" {
			return fmt.Errorf("%w: generation rule %d: 'prompt' text is required", ErrConfigValidation, i)
		}
	}

	for name, db := range config.Databases {
		if db.Connection == "" {
			return fmt.Errorf("%w: database '%s': connection is required", ErrConfigValidation, name)
		}

		if db.Driver != "" {
			if _, err := ParseDialect(db.Driver); err != nil {
				return fmt.Errorf("%w: database '%s': %s", ErrConfigValidation, name, err)
			}
		}
	}

	return nil
}

// CheckRequired verifies that credentials needed at runtime are present,
// reporting every missing name at once the way the service fails at startup.
func (c *Config) CheckRequired() error {
	var missing []string

	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	if c.Store.Backend == StoreBackendPinecone && c.Pinecone.APIKey == "" {
		missing = append(missing, "PINECONE_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: ":8000",
		},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4.1-mini",
			EmbedModel: "text-embedding-3-small",
		},
		Pinecone: PineconeConfig{
			Index:     "nl2sql-schema-index",
			Cloud:     "aws",
			Region:    "us-east-1",
			Namespace: "default",
			Dimension: 1536,
			Metric:    "cosine",
		},
		Store: StoreConfig{
			Backend: StoreBackendPinecone,
		},
		Schema: SchemaConfig{
			Path:               "maindata.sql",
			MaxColumnLines:     40,
			MaxConstraintLines: 15,
			MaxChunkChars:      4000,
		},
		Generation: GenerationConfig{
			TopK:        8,
			Temperature: 0.2,
			Validation:  ValidationNone,
		},
		Databases: map[string]Database{},
	}
}

// applyDefaults applies default values for missing configuration
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.Server.Listen == "" {
		config.Server.Listen = defaults.Server.Listen
	}

	if config.OpenAI.Model == "" {
		config.OpenAI.Model = defaults.OpenAI.Model
	}

	if config.OpenAI.EmbedModel == "" {
		config.OpenAI.EmbedModel = defaults.OpenAI.EmbedModel
	}

	if config.Pinecone.Index == "" {
		config.Pinecone.Index = defaults.Pinecone.Index
	}

	if config.Pinecone.Cloud == "" {
		config.Pinecone.Cloud = defaults.Pinecone.Cloud
	}

	if config.Pinecone.Region == "" {
		config.Pinecone.Region = defaults.Pinecone.Region
	}

	if config.Pinecone.Namespace == "" {
		config.Pinecone.Namespace = defaults.Pinecone.Namespace
	}

	if config.Pinecone.Dimension == 0 {
		config.Pinecone.Dimension = defaults.Pinecone.Dimension
	}

	if config.Pinecone.Metric == "" {
		config.Pinecone.Metric = defaults.Pinecone.Metric
	}

	if config.Store.Backend == "" {
		config.Store.Backend = defaults.Store.Backend
	}

	if config.Schema.Path == "" {
		config.Schema.Path = defaults.Schema.Path
	}

	if config.Schema.MaxColumnLines == 0 {
		config.Schema.MaxColumnLines = defaults.Schema.MaxColumnLines
	}

	if config.Schema.MaxConstraintLines == 0 {
		config.Schema.MaxConstraintLines = defaults.Schema.MaxConstraintLines
	}

	if config.Schema.MaxChunkChars == 0 {
		config.Schema.MaxChunkChars = defaults.Schema.MaxChunkChars
	}

	if config.Generation.TopK == 0 {
		config.Generation.TopK = defaults.Generation.TopK
	}

	if config.Generation.Temperature == 0 {
		config.Generation.Temperature = defaults.Generation.Temperature
	}

	if config.Generation.Validation == "" {
		config.Generation.Validation = defaults.Generation.Validation
	}

	if config.Databases == nil {
		config.Databases = map[string]Database{}
	}
}

// envString returns the first non-empty value of NL2SQL_<name> and <name>,
// matching the lookup order the service has always used.
func envString(name string) string {
	if v := os.Getenv("NL2SQL_" + name); v != "" {
		return v
	}

	return os.Getenv(name)
}

// applyEnvOverrides overlays environment values onto the configuration.
func applyEnvOverrides(config *Config) {
	set := func(dst *string, name string) {
		if v := envString(name); v != "" {
			*dst = v
		}
	}

	set(&config.Server.Listen, "LISTEN_ADDR")
	set(&config.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&config.OpenAI.Model, "OPENAI_MODEL")
	set(&config.OpenAI.EmbedModel, "OPENAI_EMBED_MODEL")
	set(&config.OpenAI.BaseURL, "OPENAI_BASE_URL")
	set(&config.Pinecone.APIKey, "PINECONE_API_KEY")
	set(&config.Pinecone.Index, "PINECONE_INDEX")
	set(&config.Pinecone.Cloud, "PINECONE_CLOUD")
	set(&config.Pinecone.Region, "PINECONE_REGION")
	set(&config.Pinecone.Namespace, "PINECONE_NAMESPACE")
	set(&config.Pinecone.Metric, "PINECONE_METRIC")
	set(&config.Store.Backend, "STORE_BACKEND")
	set(&config.Schema.Path, "SCHEMA_SQL_PATH")

	if v := envString("PINECONE_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Pinecone.Dimension = n
		}
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	// Try to load .env file from current directory
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

// expandConfigEnvVars expands environment variables in credential and path
// fields. Prompt rule text is left untouched on purpose.
func expandConfigEnvVars(config *Config) {
	config.OpenAI.APIKey = expandEnvVars(config.OpenAI.APIKey)
	config.OpenAI.BaseURL = expandEnvVars(config.OpenAI.BaseURL)
	config.Pinecone.APIKey = expandEnvVars(config.Pinecone.APIKey)
	config.Schema.Path = expandEnvVars(config.Schema.Path)

	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		config.Databases[name] = db
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
