package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morozRed/implscope/internal/cli"
)

func TestImplementationsCommandEndToEnd(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "shape", "shape.go"), `package shape

type Shape interface {
	Area() float64
}

type Square struct{ Side float64 }

func (s Square) Area() float64 { return s.Side * s.Side }
`)

	withWorkingDir(t, root, func() {
		out := captureStdout(t, func() {
			cmd := cli.NewRootCommand("test")
			cmd.SetArgs([]string{"implementations", "shape/shape.go:4:2"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("implementations failed: %v", err)
			}
		})
		if strings.TrimSpace(out) != "shape/shape.go:9:17-9:21" {
			t.Fatalf("unexpected output: %q", out)
		}

		out = captureStdout(t, func() {
			cmd := cli.NewRootCommand("test")
			cmd.SetArgs([]string{"version"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("version failed: %v", err)
			}
		})
		if strings.TrimSpace(out) != "implscope test" {
			t.Fatalf("unexpected version output: %q", out)
		}
	})
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = reader.Close()
	}()

	done := make(chan string)
	go func() {
		data, _ := io.ReadAll(reader)
		done <- string(data)
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}
	return <-done
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
