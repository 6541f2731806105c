package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is tried when no config file is named explicitly.
const DefaultPath = "config/config.toml"

type LLMConfig struct {
	Provider            string `toml:"provider"`
	Model               string `toml:"model"`
	EmbeddingModel      string `toml:"embedding_model"`
	EmbeddingDimensions int    `toml:"embedding_dimensions"`
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
}

type GraphConfig struct {
	Provider string `toml:"provider"` // neo4j or memgraph
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type ExtractionConfig struct {
	// MaxTokens bounds the clinical text handed to the model; longer
	// inputs are truncated at a token boundary.
	MaxTokens int `toml:"max_tokens"`
	// Prompt overrides the built-in instruction template. It must keep
	// two %s verbs: the JSON schema and the clinical text.
	Prompt string `toml:"prompt"`
}

type ImportConfig struct {
	Mode           string `toml:"mode"` // create or upsert
	Strict         bool   `toml:"strict"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type GeocodeConfig struct {
	Provider string `toml:"provider"` // google, static, off
	APIKey   string `toml:"api_key"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Graph      GraphConfig      `toml:"graph"`
	Extraction ExtractionConfig `toml:"extraction"`
	Import     ImportConfig     `toml:"import"`
	Geocode    GeocodeConfig    `toml:"geocode"`
	Server     ServerConfig     `toml:"server"`
}

// Default is the configuration used when no file overrides it: a local
// ollama for extraction and embeddings, a local bolt store, create-mode
// imports.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:            "ollama",
			Model:               "llama3.1",
			EmbeddingModel:      "nomic-embed-text",
			EmbeddingDimensions: 768,
			BaseURL:             "http://localhost:11434",
		},
		Graph: GraphConfig{
			Provider: "neo4j",
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Password: "password",
		},
		Extraction: ExtractionConfig{MaxTokens: 8000},
		Import:     ImportConfig{Mode: "create", TimeoutSeconds: 30},
		Geocode:    GeocodeConfig{Provider: "static"},
		Server:     ServerConfig{Port: "8080"},
	}
}

// Load layers a TOML file over Default, then applies environment
// overrides. With an empty path the default location is tried and may be
// absent; a path named explicitly must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if uerr := toml.Unmarshal(data, cfg); uerr != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, uerr)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults and the environment carry.
	default:
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.LLM.Provider, "LLM_PROVIDER")
	overrideString(&c.LLM.Model, "LLM_MODEL")
	overrideString(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	overrideString(&c.LLM.APIKey, "LLM_API_KEY")
	overrideString(&c.LLM.BaseURL, "LLM_BASE_URL")

	overrideString(&c.Graph.Provider, "GRAPH_PROVIDER")
	overrideString(&c.Graph.URI, "NEO4J_URI")
	overrideString(&c.Graph.User, "NEO4J_USER")
	overrideString(&c.Graph.Password, "NEO4J_PASSWORD")
	overrideString(&c.Graph.Database, "NEO4J_DATABASE")

	overrideString(&c.Geocode.APIKey, "GOOGLE_MAPS_API_KEY")
	overrideString(&c.Server.Port, "PORT")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
