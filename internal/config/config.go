package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig describes one model endpoint, either an OpenAI-compatible API
// or a local Ollama server.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
	MaxHistoryTurns int `yaml:"max_history_turns"`
	SummaryChars    int `yaml:"summary_chars"`
}

type SessionConfig struct {
	MaxSessions        int  `yaml:"max_sessions"`
	TTLMinutes         int  `yaml:"ttl_minutes"`
	SweepMinutes       int  `yaml:"sweep_minutes"`
	FallbackLastActive bool `yaml:"fallback_last_active"`
}

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	ChatLLM  LLMConfig     `yaml:"chat_llm"`
	RAG      RAGConfig     `yaml:"rag"`
	Session  SessionConfig `yaml:"session"`
}

// Load reads the config at path on top of the defaults. A missing file is
// not an error; the defaults are returned as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		EmbedLLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		ChatLLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.groq.com/openai",
			Model:    "llama-3.1-8b-instant",
		},
		RAG: RAGConfig{
			ChunkSize:       800,
			TopK:            3,
			MaxContextChars: 3000,
			MaxHistoryTurns: 10,
			SummaryChars:    2000,
		},
		Session: SessionConfig{
			MaxSessions:        100,
			TTLMinutes:         60,
			SweepMinutes:       5,
			FallbackLastActive: true,
		},
	}
}
