package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSchema(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "contract", "stats.schema.json")
	if err := writeSchema(outPath); err != nil {
		t.Fatalf("writeSchema failed: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("schema file missing: %v", err)
	}
	for _, field := range []string{"jurisdictions", "serverTime", "relays"} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("schema missing %q:\n%s", field, data)
		}
	}
	if _, err := os.Stat(outPath + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away, stat err %v", err)
	}
}
