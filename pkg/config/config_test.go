package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	fails bool
}

func (s *sample) Validate() error {
	if s.fails || s.Port < 0 {
		return errors.New("bad port")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("DOCSAUTHOR_TEST_NAME", "docs")
	p := writeFile(t, "name: ${DOCSAUTHOR_TEST_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "docs" || s.Port != 9000 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeFile(t, "port: -1\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadOptional_MissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found || s.Name != "default" || s.Port != 8080 {
		t.Errorf("found = %v, loaded = %+v", found, s)
	}
}

func TestLoadOptional_MissingStillValidates(t *testing.T) {
	s := sample{fails: true}
	if _, err := LoadOptional("", &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptional_OverridesDefaults(t *testing.T) {
	p := writeFile(t, "port: 9090\n")
	s := sample{Name: "default", Port: 8080}
	found, err := LoadOptional(p, &s)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if !found || s.Name != "default" || s.Port != 9090 {
		t.Errorf("found = %v, loaded = %+v", found, s)
	}
}
