// Package ocr turns PDF and image menu assets into plain text using the
// pdftotext and tesseract command line tools.
package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"

	"github.com/xhad/siteqa/internal/models"
)

// run writes data to a temp file and executes bin with args, where the
// placeholder "{}" is replaced by the temp file path.
func run(ctx context.Context, bin, pattern string, data []byte, args ...string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp file")
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", eris.Wrap(err, "ocr: write temp file")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "ocr: close temp file")
	}

	argv := make([]string, len(args))
	for i, a := range args {
		if a == "{}" {
			a = f.Name()
		}
		argv[i] = a
	}

	cmd := exec.CommandContext(ctx, bin, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", models.Fail(models.ParseFailure, bin, eris.Wrapf(err, "ocr: %s failed: %s", bin, stderr.String()))
	}
	return stdout.String(), nil
}
