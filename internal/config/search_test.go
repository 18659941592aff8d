package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskmaster.ini")
	if err := os.WriteFile(path, []byte("[general]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != path {
		t.Fatalf("Resolve = %q, want %q", got, path)
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing.ini"))
	if err == nil {
		t.Fatal("expected an error for a missing explicit path")
	}
}

func TestResolveEnvVar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.ini")
	if err := os.WriteFile(path, []byte("[general]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKMASTER_CONFIG", path)

	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != path {
		t.Fatalf("Resolve = %q, want %q", got, path)
	}
}

func TestResolveNoneFound(t *testing.T) {
	t.Setenv("TASKMASTER_CONFIG", "")
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	saved := DefaultSearchPaths
	DefaultSearchPaths = []string{filepath.Join(dir, "nope.ini")}
	defer func() { DefaultSearchPaths = saved }()

	if _, err := Resolve(""); err == nil {
		t.Fatal("expected an error when no config file can be found")
	}
}
