package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MinimalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
study:
  id: "study-1"

remote:
  base_url: "https://study.example.org"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Study.BaseFilename != "data.csv" {
		t.Errorf("Expected default base filename 'data.csv', got %q", cfg.Study.BaseFilename)
	}
	if cfg.Keystore.Type != "badger" {
		t.Errorf("Expected default keystore type 'badger', got %q", cfg.Keystore.Type)
	}
	if cfg.Storage.Type != "auto" {
		t.Errorf("Expected default storage type 'auto', got %q", cfg.Storage.Type)
	}
	if cfg.Sync.Interval != 60*time.Second {
		t.Errorf("Expected default sync interval 60s, got %v", cfg.Sync.Interval)
	}
	if cfg.Remote.Timeout != 30*time.Second {
		t.Errorf("Expected default remote timeout 30s, got %v", cfg.Remote.Timeout)
	}
}

func TestLoad_MissingStudyID(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
remote:
  base_url: "https://study.example.org"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for missing study ID, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
study:
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_StorageOptions(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
study:
  id: "study-1"

remote:
  base_url: "https://study.example.org"

storage:
  type: "native"
  native:
    directory: "/data/studies"

keystore:
  type: "memory"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Storage.Type != "native" {
		t.Errorf("Expected storage type 'native', got %q", cfg.Storage.Type)
	}
	if dir, _ := cfg.Storage.Native["directory"].(string); dir != "/data/studies" {
		t.Errorf("Expected native directory '/data/studies', got %q", dir)
	}
	if cfg.Keystore.Type != "memory" {
		t.Errorf("Expected keystore type 'memory', got %q", cfg.Keystore.Type)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if path == "" {
		t.Fatal("Expected non-empty default config path")
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected path to end in config.yaml, got %q", path)
	}
}
