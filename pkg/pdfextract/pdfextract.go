// Package pdfextract pulls plain text out of uploaded PDF documents for use
// as a coach knowledge base.
package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
)

// maxDocumentBytes bounds how large an uploaded PDF may be.
const maxDocumentBytes = 10 << 20

// Text extracts the plain text of a PDF document. Encrypted, malformed, or
// text-free documents return an error; callers decide whether that blocks
// the upload or just skips the knowledge base.
func Text(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("empty document: %w", herrors.ErrValidation)
	}
	if len(doc) > maxDocumentBytes {
		return "", fmt.Errorf("document exceeds %d bytes: %w", maxDocumentBytes, herrors.ErrValidation)
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("document contains no extractable text: %w", herrors.ErrValidation)
	}
	return text, nil
}
