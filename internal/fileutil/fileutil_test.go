package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"line": 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "{\n  \"line\": 3\n}\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestWriteIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := WriteIfMissing(path, []byte("first"), 0644)
	if err != nil || !written {
		t.Fatalf("expected first write, got written=%t err=%v", written, err)
	}
	written, err = WriteIfMissing(path, []byte("second"), 0644)
	if err != nil || written {
		t.Fatalf("expected existing file to be kept, got written=%t err=%v", written, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if string(data) != "first" {
		t.Fatalf("expected original content, got %q", data)
	}
}
