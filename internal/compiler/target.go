package compiler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lhaig/matchlower/internal/config"
)

// LoweredExt is the extension of files written by EmitToTarget
const LoweredExt = ".lowered.pat"

// OutputPath returns where EmitToTarget writes the lowered form of
// inputPath: next to it, with the extension replaced
func OutputPath(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + LoweredExt
}

// EmitToTarget lowers the file at inputPath and writes the tree notation of
// its units to outPath. Diagnostics of a failed compilation come back in
// the error; warnings of a successful one are returned in the result.
func EmitToTarget(ctx context.Context, inputPath, outPath string, cfg *config.Config, logger *log.Logger, stdout io.Writer) (*Result, error) {
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	res, err := Compile(ctx, filepath.Base(inputPath), string(source), cfg, logger)
	if err != nil {
		return res, err
	}
	if res.Failed() {
		return res, fmt.Errorf("%w:\n%s", ErrCompilation, res.Diagnostics.Format())
	}

	if err := os.WriteFile(outPath, []byte(res.Tree()+"\n"), 0644); err != nil {
		return res, fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", outPath)
	return res, nil
}
