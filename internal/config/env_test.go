package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	root := t.TempDir()
	env := "SHELF_TEST_FROM_DOTENV=loaded\nSHELF_TEST_PRESET=from-file\n"
	if err := os.WriteFile(filepath.Join(root, EnvFile), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHELF_TEST_PRESET", "from-process")
	t.Setenv("SHELF_TEST_FROM_DOTENV", "")
	os.Unsetenv("SHELF_TEST_FROM_DOTENV")

	if err := LoadEnv(root); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv("SHELF_TEST_FROM_DOTENV"); got != "loaded" {
		t.Errorf("SHELF_TEST_FROM_DOTENV = %q, want loaded", got)
	}
	if got := os.Getenv("SHELF_TEST_PRESET"); got != "from-process" {
		t.Errorf("SHELF_TEST_PRESET = %q, want process value kept", got)
	}
}

func TestLoadEnv_MissingFiles(t *testing.T) {
	if err := LoadEnv(t.TempDir()); err != nil {
		t.Errorf("LoadEnv() error = %v, want nil for missing files", err)
	}
}
