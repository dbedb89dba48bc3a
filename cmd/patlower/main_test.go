package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"github.com/lhaig/matchlower/internal/config"
)

const shapes = `(class Shape)
(class Circle Shape)
(func area ((s Shape)) int
  (return (switch-expr int s
    (-> ((bind Circle c)) 3)
    (-> (default) 0))))
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHandleCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.pat", shapes)
	bad := writeFile(t, dir, "bad.pat", `(func f () int (return x))`)
	ctx := context.Background()

	be.Equal(t, handleCheck(ctx, nil), 1)
	be.Equal(t, handleCheck(ctx, []string{good}), 0)
	be.Equal(t, handleCheck(ctx, []string{bad}), 1)
	be.Equal(t, handleCheck(ctx, []string{filepath.Join(dir, "missing.pat")}), 1)
}

func TestHandleLower(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.pat", shapes)
	bad := writeFile(t, dir, "bad.pat", `(func f () int (return x))`)
	ctx := context.Background()

	be.Equal(t, handleLower(ctx, []string{good}), 0)
	_, err := os.Stat(filepath.Join(dir, "good.lowered.pat"))
	be.Err(t, err, nil)

	out := filepath.Join(dir, "custom.pat")
	be.Equal(t, handleLower(ctx, []string{"-o", out, good}), 0)
	_, err = os.Stat(out)
	be.Err(t, err, nil)

	be.Equal(t, handleLower(ctx, []string{bad}), 1)
	_, err = os.Stat(filepath.Join(dir, "bad.lowered.pat"))
	be.Err(t, err, os.ErrNotExist)

	be.Equal(t, handleLower(ctx, nil), 1)
	be.Equal(t, handleLower(ctx, []string{"--fast", good}), 1)
	be.Equal(t, handleLower(ctx, []string{good, "-o"}), 1)
}

func TestHandleRun(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.pat", shapes)
	ctx := context.Background()

	be.Equal(t, handleRun(ctx, []string{good, "(area (new Circle))"}), 0)
	be.Equal(t, handleRun(ctx, []string{good, "(area null)"}), 1)
	be.Equal(t, handleRun(ctx, []string{good, "(missing)"}), 1)
	be.Equal(t, handleRun(ctx, []string{good}), 1)
}

func TestLoadConfigFromInputDirectory(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "good.pat", shapes)

	cfg, err := loadConfig(input)
	be.Err(t, err, nil)
	if cfg.Color != config.ColorAuto {
		// a patlower.yaml above the temp dir is in effect
		t.Skipf("found an unrelated config with color %q", cfg.Color)
	}

	writeFile(t, dir, config.FileName, "color: never\nconcurrency: 2\n")
	cfg, err = loadConfig(input)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Color, config.ColorNever)
	be.Equal(t, cfg.Concurrency, 2)
	be.Equal(t, useColor(cfg), false)

	writeFile(t, dir, config.FileName, "color: rainbow\n")
	_, err = loadConfig(input)
	be.Err(t, err, "color must be auto, always or never")
}
