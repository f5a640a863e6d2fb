package conv

import (
	"fmt"
	"io"
	"strings"

	"github.com/inbucket/html2text"
)

// HTMLToText extracts readable text from an HTML document, keeping links
// and table layout.
func HTMLToText(r io.Reader) (string, error) {
	text, err := html2text.FromReader(r, html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}
	return strings.TrimSpace(text), nil
}
