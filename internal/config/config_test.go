package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Adapter:     "openai",
		ChatKey:     "sk-test",
		TavilyKey:   "tvly-test",
		DatabaseURL: "postgres://localhost/wayfind",
		EmbedKey:    "sk-test",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_MissingChatKey(t *testing.T) {
	cfg := validConfig()
	cfg.ChatKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing chat key")
	}
	if !strings.Contains(err.Error(), "ChatKey") {
		t.Fatalf("expected ChatKey in error, got %v", err)
	}
}

func TestValidate_MissingTavilyKey(t *testing.T) {
	cfg := validConfig()
	cfg.TavilyKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing Tavily key")
	}
}

func TestValidate_MissingEmbedKeyIsNotFatal(t *testing.T) {
	cfg := validConfig()
	cfg.EmbedKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing embed key should only warn, got %v", err)
	}
}
