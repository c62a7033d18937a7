package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeScript 用shell脚本顶替python适配器，验证子进程契约
func fakeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake_ocr.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake script: %v", err)
	}
	return path
}

func TestPaddleEngineParsesOutput(t *testing.T) {
	script := fakeScript(t, `cat <<'EOF'
[
  {"text": "姓名 (中文)", "confidence": 0.98,
   "box": {"topLeft": {"x": 10, "y": 20}, "topRight": {"x": 110, "y": 20},
           "bottomRight": {"x": 110, "y": 40}, "bottomLeft": {"x": 10, "y": 40}}}
]
EOF`)
	engine := NewPaddleEngine("/bin/sh", script, "", 5*time.Second)

	results, err := engine.Run(context.Background(), "/tmp/form.jpg")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Text != "姓名 (中文)" || r.Confidence != 0.98 {
		t.Errorf("Unexpected result: %+v", r)
	}
	if r.Box.TopLeft.X != 10 || r.Box.BottomRight.Y != 40 {
		t.Errorf("Bounding box not parsed: %+v", r.Box)
	}
}

func TestPaddleEngineEmptyArray(t *testing.T) {
	script := fakeScript(t, `echo "[]"`)
	engine := NewPaddleEngine("/bin/sh", script, "", 5*time.Second)

	results, err := engine.Run(context.Background(), "/tmp/blank.jpg")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %+v", results)
	}
}

func TestPaddleEngineExecError(t *testing.T) {
	script := fakeScript(t, `echo "ocr failed: cannot open image" >&2
exit 3`)
	engine := NewPaddleEngine("/bin/sh", script, "", 5*time.Second)

	_, err := engine.Run(context.Background(), "/tmp/missing.jpg")
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected ExecError, got %v", err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", execErr.ExitCode)
	}
	if execErr.Stderr != "ocr failed: cannot open image" {
		t.Errorf("Expected stderr captured, got %q", execErr.Stderr)
	}
}

func TestPaddleEngineParseError(t *testing.T) {
	script := fakeScript(t, `echo "Downloading model weights..."`)
	engine := NewPaddleEngine("/bin/sh", script, "", 5*time.Second)

	_, err := engine.Run(context.Background(), "/tmp/form.jpg")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestPaddleEngineTimeout(t *testing.T) {
	script := fakeScript(t, `sleep 10`)
	engine := NewPaddleEngine("/bin/sh", script, "", 100*time.Millisecond)

	_, err := engine.Run(context.Background(), "/tmp/form.jpg")
	if err == nil {
		t.Fatal("Expected timeout error")
	}
}
