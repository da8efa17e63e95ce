// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Vault.Digest != "blake3" {
		t.Errorf("expected digest=blake3, got %s", cfg.Vault.Digest)
	}
	if cfg.Versioning.Retention != 10 {
		t.Errorf("expected retention=10, got %d", cfg.Versioning.Retention)
	}
	if cfg.Versioning.MaxAttempts != 100 {
		t.Errorf("expected max_attempts=100, got %d", cfg.Versioning.MaxAttempts)
	}
	if cfg.Previews.Compression != "auto" {
		t.Errorf("expected compression=auto, got %s", cfg.Previews.Compression)
	}
	if !cfg.Watch.Enabled {
		t.Error("expected watch enabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memex.yaml")
	content := `
vault:
  root: /data/vault
  digest: xxh64
versioning:
  retention: 5
previews:
  compression: zstd
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Vault.Root != "/data/vault" {
		t.Errorf("root = %s", cfg.Vault.Root)
	}
	if cfg.Vault.Digest != "xxh64" {
		t.Errorf("digest = %s", cfg.Vault.Digest)
	}
	if cfg.Versioning.Retention != 5 {
		t.Errorf("retention = %d", cfg.Versioning.Retention)
	}
	// Unstated fields keep their defaults.
	if cfg.Versioning.MaxAttempts != 100 {
		t.Errorf("max_attempts = %d, want default 100", cfg.Versioning.MaxAttempts)
	}
	if cfg.Previews.Compression != "zstd" {
		t.Errorf("compression = %s", cfg.Previews.Compression)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memex.yaml")
	content := `
vault:
  digest: sha0
previews:
  compression: brotli
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	if !strings.Contains(err.Error(), "digest") || !strings.Contains(err.Error(), "compression") {
		t.Errorf("error does not name both problems: %v", err)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	dir := t.TempDir()
	path := filepath.Join(dir, "memex.yaml")
	if err := os.WriteFile(path, []byte("vault:\n  root: ${HOME}/vault\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault.Root != "/home/tester/vault" {
		t.Errorf("root = %s", cfg.Vault.Root)
	}
}

func TestLoadWithoutEnvUsesDefaults(t *testing.T) {
	t.Setenv("MEMEX_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Vault.Digest != "blake3" {
		t.Errorf("digest = %s", cfg.Vault.Digest)
	}
	if strings.Contains(cfg.Vault.Root, "${") {
		t.Errorf("root not expanded: %s", cfg.Vault.Root)
	}
}
