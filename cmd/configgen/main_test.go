package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/redockctl/internal/testutil/testlog"
)

func TestRunWritesAndValidatesTemplate(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for _, name := range []string{"redockctl.toml", "redockctl.yaml"} {
		path := filepath.Join(dir, name)
		if err := run([]string{"-o", path}, &bytes.Buffer{}); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("template not written: %v", err)
		}
		if err := run([]string{"--validate", "-i", path}, &bytes.Buffer{}); err != nil {
			t.Fatalf("validate %s: %v", name, err)
		}
		if err := run([]string{"-o", path}, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected refusal to overwrite %s", name)
		}
		if err := run([]string{"-o", path, "--force"}, &bytes.Buffer{}); err != nil {
			t.Fatalf("forced overwrite of %s: %v", name, err)
		}
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "redockctl.conf")
	if err := run([]string{"-o", path}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
