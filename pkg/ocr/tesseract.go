package ocr

import "context"

// Tesseract runs OCR over images with the tesseract CLI.
type Tesseract struct {
	binPath string
	lang    string
}

// NewTesseract creates a Tesseract extractor. An empty binPath uses
// "tesseract"; an empty lang leaves language selection to tesseract.
func NewTesseract(binPath, lang string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Tesseract{binPath: binPath, lang: lang}
}

func (t *Tesseract) ExtractText(ctx context.Context, data []byte) (string, error) {
	args := []string{"{}", "stdout"}
	if t.lang != "" {
		args = append(args, "-l", t.lang)
	}
	return run(ctx, t.binPath, "siteqa-*.img", data, args...)
}
