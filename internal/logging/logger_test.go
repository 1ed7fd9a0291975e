package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lchat.log")
	logger, err := New(path, "lchat", "main", false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not json: %q", line)
	}
	if rec["msg"] != "hello" || rec["component"] != "lchat" || rec["profile"] != "main" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["ts"]; !ok {
		t.Error("missing ts")
	}
}
