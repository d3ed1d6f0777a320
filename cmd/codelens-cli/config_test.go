package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, fmt string }{flagURL, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagFmt = orig.fmt
	})
}

// unsetEnv temporarily unsets an environment variable and restores it on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, exists := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if exists {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// setEnv temporarily sets an environment variable and restores it on cleanup.
func setEnv(t *testing.T, key, val string) {
	t.Helper()
	prev, exists := os.LookupEnv(key)
	os.Setenv(key, val)
	t.Cleanup(func() {
		if exists {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// TestResolveConfigEnvURL verifies that CODELENS_URL overrides the default URL.
func TestResolveConfigEnvURL(t *testing.T) {
	resetFlags(t)
	setEnv(t, "CODELENS_URL", "http://env-server:9090")

	// Point HOME at a temp dir so there's no config file to interfere.
	tmp := t.TempDir()
	setEnv(t, "HOME", tmp)

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL = %q, want env value", flagURL)
	}
}

// TestResolveConfigFlagWins verifies that an explicit --url beats the env.
func TestResolveConfigFlagWins(t *testing.T) {
	resetFlags(t)
	setEnv(t, "CODELENS_URL", "http://env-server:9090")
	setEnv(t, "HOME", t.TempDir())

	flagURL = "http://flag-server:7070"
	resolveConfig()

	if flagURL != "http://flag-server:7070" {
		t.Errorf("flagURL = %q, want flag value", flagURL)
	}
}

// TestResolveConfigFile verifies that a flat config file supplies the URL
// when neither flag nor env is set.
func TestResolveConfigFile(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "CODELENS_URL")

	tmp := t.TempDir()
	setEnv(t, "HOME", tmp)

	dir := filepath.Join(tmp, ".codelens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := []byte("url: http://file-server:8080\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), cfg, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://file-server:8080" {
		t.Errorf("flagURL = %q, want config file value", flagURL)
	}
}

// TestResolveConfigProfile verifies that the active profile wins over the
// flat url entry.
func TestResolveConfigProfile(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "CODELENS_URL")

	tmp := t.TempDir()
	setEnv(t, "HOME", tmp)

	dir := filepath.Join(tmp, ".codelens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := []byte(`url: http://flat:1111
active_profile: staging
profiles:
  default:
    url: http://default:2222
  staging:
    url: http://staging:3333
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), cfg, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://staging:3333" {
		t.Errorf("flagURL = %q, want staging profile value", flagURL)
	}
}

// TestResolveConfigMissingFile verifies the default survives when no
// config file exists.
func TestResolveConfigMissingFile(t *testing.T) {
	resetFlags(t)
	unsetEnv(t, "CODELENS_URL")
	setEnv(t, "HOME", t.TempDir())

	flagURL = defaultURL
	resolveConfig()

	if flagURL != defaultURL {
		t.Errorf("flagURL = %q, want default", flagURL)
	}
}
