package main

import (
	"os"
	"testing"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}

// Dotenv keys must reach the config even when no config file exists:
// buildApp loads .env before the environment fallbacks run.
func TestBuildAppReadsDotenvWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// Keep the home search path away from any real user config.
	t.Setenv("HOME", dir)

	for _, key := range []string{"OPENAI_API_KEY", "OPENWEATHERMAP_API_KEY", "WEBHOOK_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	env := "OPENAI_API_KEY=sk-dotenv\nWEBHOOK_URL=https://hooks.example.test/run\n"
	if err := os.WriteFile(".env", []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := buildApp(&rootFlags{userID: "me"})
	if err != nil {
		t.Fatal(err)
	}
	if a.cfg.OpenAI.APIKey != "sk-dotenv" {
		t.Errorf("api key = %q, want value from .env", a.cfg.OpenAI.APIKey)
	}
	if a.cfg.Webhook.URL != "https://hooks.example.test/run" {
		t.Errorf("webhook url = %q, want value from .env", a.cfg.Webhook.URL)
	}
}

func TestBuildAppExpandsDotenvIntoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	if err := os.WriteFile(".env", []byte("OPENAI_API_KEY=sk-expanded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	yaml := "openai:\n  api_key: ${OPENAI_API_KEY}\n"
	if err := os.WriteFile("gather.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := buildApp(&rootFlags{userID: "me"})
	if err != nil {
		t.Fatal(err)
	}
	if a.cfg.OpenAI.APIKey != "sk-expanded" {
		t.Errorf("api key = %q, want dotenv value expanded into the YAML", a.cfg.OpenAI.APIKey)
	}
}
