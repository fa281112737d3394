package docmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText pulls the plain text out of a PDF, one markdown section
// per non-empty page.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sections []string
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", num, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("## Page %d\n\n%s", num, text))
	}
	return strings.Join(sections, "\n\n"), nil
}
