// Package page reads placeholder text out of the host page that embeds the status line.
package page

import (
	"fmt"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
)

// LoadPlaceholder returns the inner text of the element whose id attribute
// equals id in the XHTML document at path.
func LoadPlaceholder(path, id string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open host page: %w", err)
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse host page: %w", err)
	}

	if strings.ContainsAny(id, `"'`) {
		return "", fmt.Errorf("invalid target id %q", id)
	}
	node, err := xmlquery.Query(doc, fmt.Sprintf(`//*[@id="%s"]`, id))
	if err != nil {
		return "", fmt.Errorf("query host page: %w", err)
	}
	if node == nil {
		return "", fmt.Errorf("element #%s not found in %s", id, path)
	}
	return node.InnerText(), nil
}
