package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ocrSegModes are tried in order against an image. Single-block layout
// covers typical scans; single-word and raw-line catch sparse images like
// stamps or labels where block segmentation finds nothing.
var ocrSegModes = []gosseract.PageSegMode{
	gosseract.PSM_SINGLE_BLOCK,
	gosseract.PSM_SINGLE_WORD,
	gosseract.PSM_RAW_LINE,
}

// imageOCR recognizes text in an image file, retrying with progressively
// looser page segmentation until a usable amount of text comes back.
func imageOCR(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	var lastErr error
	for _, mode := range ocrSegModes {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := recognizeImageWithMode(data, mode)
		if err != nil {
			lastErr = err
			continue
		}
		if len(strings.TrimSpace(text)) >= minTextLen {
			return text, nil
		}
		lastErr = fmt.Errorf("segmentation mode %d produced %d chars", mode, len(strings.TrimSpace(text)))
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no text recognized")
	}
	return "", lastErr
}

// recognizeImage runs OCR with the default block segmentation.
func recognizeImage(data []byte) (string, error) {
	return recognizeImageWithMode(data, gosseract.PSM_SINGLE_BLOCK)
}

func recognizeImageWithMode(data []byte, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("set seg mode: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
