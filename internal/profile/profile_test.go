package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/letschat/internal/config"
)

func TestDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("LETSCHAT_HOME", base)
	if got, want := Dir("main"), filepath.Join(base, "profiles", "main"); got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestDefaultBaseDir(t *testing.T) {
	t.Setenv("LETSCHAT_HOME", "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".letschat"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("LETSCHAT_HOME", t.TempDir())
	tests := []struct {
		got    string
		suffix string
	}{
		{IdentityPath("work"), filepath.Join("profiles", "work", "identity.toml")},
		{CachePath("work"), filepath.Join("profiles", "work", "local.db")},
		{LogPath("work", "lchat"), filepath.Join("profiles", "work", "logs", "lchat.log")},
		{HubSocketPath(), filepath.Join("hub", "hub.sock")},
		{HubDBPath(), filepath.Join("hub", "tree.db")},
	}
	for _, tt := range tests {
		if !strings.HasSuffix(tt.got, tt.suffix) {
			t.Errorf("%q does not end with %q", tt.got, tt.suffix)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv("LETSCHAT_HOME", t.TempDir())
	if err := EnsureDir("test"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(LogDir("test"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("LETSCHAT_HOME", t.TempDir())
	t.Setenv(config.EnvProfile, "")

	resolve := func(flag, want string) {
		t.Helper()
		got, err := Resolve(flag)
		if err != nil || got != want {
			t.Errorf("Resolve(%q) = %q, %v, want %q", flag, got, err, want)
		}
	}
	resolve("", DefaultName)
	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "fromconfig"}); err != nil {
		t.Fatal(err)
	}
	resolve("", "fromconfig")
	t.Setenv(config.EnvProfile, "fromenv")
	resolve("", "fromenv")
	resolve("fromflag", "fromflag")
}

func TestResolveRejectsNames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main", false},
		{"valid with numbers", "work123", false},
		{"valid with hyphen", "my-profile", false},
		{"valid with underscore", "my_profile", false},
		{"valid max length", strings.Repeat("a", 64), false},
		{"uppercase", "Main", true},
		{"space", "my profile", true},
		{"dot", "my.profile", true},
		{"too long", strings.Repeat("a", 65), true},
		{"slash", "my/profile", true},
		{"parent dir", "..", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("error %v does not wrap ErrInvalidName", err)
			}
		})
	}
}

func TestResolveNamesSource(t *testing.T) {
	t.Setenv("LETSCHAT_HOME", t.TempDir())
	t.Setenv(config.EnvProfile, "")

	if _, err := Resolve("Bad"); err == nil || !strings.Contains(err.Error(), "from --profile") {
		t.Errorf("flag: %v", err)
	}
	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "Work"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(""); err == nil || !strings.Contains(err.Error(), "default_profile in "+ConfigPath()) {
		t.Errorf("config: %v", err)
	}
	t.Setenv(config.EnvProfile, "a.b")
	if _, err := Resolve(""); err == nil || !strings.Contains(err.Error(), "$"+config.EnvProfile) {
		t.Errorf("env: %v", err)
	}
}
