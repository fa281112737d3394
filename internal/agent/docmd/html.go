package docmd

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const maxMarkdownChars = 500000

// ConvertHTML converts an HTML document to markdown.
func ConvertHTML(data []byte) (string, error) {
	md, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	if len(md) > maxMarkdownChars {
		md = md[:maxMarkdownChars] + "\n\n[Content truncated]"
	}
	return md, nil
}
