package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// pdfOCR rasterizes each page and runs OCR over the images. Pages that fail
// to render or recognize contribute a placeholder line so page numbering in
// the output stays aligned with the source document.
func pdfOCR(ctx context.Context, filePath string) (string, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.Image(i)
		if err != nil {
			pages = append(pages, fmt.Sprintf("[Error rendering page %d: %v]", i+1, err))
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			pages = append(pages, fmt.Sprintf("[Error encoding page %d: %v]", i+1, err))
			continue
		}

		text, err := recognizeImage(buf.Bytes())
		if err != nil {
			pages = append(pages, fmt.Sprintf("[OCR failed for page %d: %v]", i+1, err))
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return strings.Join(pages, "\n"), nil
}

// pdfTextLayer reads the embedded text layer page by page.
func pdfTextLayer(ctx context.Context, filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	return readTextLayer(ctx, r.NumPage(), func(i int) (string, bool, error) {
		p := r.Page(i)
		if p.V.IsNull() {
			return "", false, nil
		}
		text, err := p.GetPlainText(nil)
		return text, true, err
	})
}

// readTextLayer walks the pages in order. Unreadable pages contribute a
// placeholder line so page numbering in the output stays aligned with the
// source document, matching how OCR reports render failures.
func readTextLayer(ctx context.Context, total int, page func(int) (string, bool, error)) (string, error) {
	var sb strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, ok, err := page(i)
		if !ok {
			continue
		}
		if err != nil {
			fmt.Fprintf(&sb, "[Error reading page %d: %v]\n", i, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// pdfConvert hands the file to the docconv toolchain as a last resort.
func pdfConvert(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := docconv.ConvertPath(filePath)
	if err != nil {
		return "", fmt.Errorf("convert pdf: %w", err)
	}
	return res.Body, nil
}
