package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/siteqa/internal/models"
)

func fakeBin(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_JoinsPages(t *testing.T) {
	bin := fakeBin(t, `printf 'Pizza 9.50\n\fPasta 11.00\n\f'`)

	text, err := NewPdfToText(bin).ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Pizza 9.50\nPasta 11.00", text)
}

func TestPdfToText_PassesFile(t *testing.T) {
	// prints the input file contents, proving the temp file path is passed
	bin := fakeBin(t, `cat "$2"`)

	text, err := NewPdfToText(bin).ExtractText(context.Background(), []byte("Salad 7.00"))
	require.NoError(t, err)
	assert.Equal(t, "Salad 7.00", text)
}

func TestTesseract_Args(t *testing.T) {
	bin := fakeBin(t, `echo "$2 $3 $4"`)

	text, err := NewTesseract(bin, "deu").ExtractText(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "stdout -l deu\n", text)
}

func TestMissingBinaryIsParseFailure(t *testing.T) {
	_, err := NewTesseract("/nonexistent/tesseract", "").ExtractText(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ParseFailure))
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "", joinPages("\f\f"))
	assert.Equal(t, "a\nb", joinPages("a\fb"))
}
