package matching

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// CompileXPath validates an etree path expression at rule build time.
// A trailing "/@attr" step selects an attribute of the matched element.
func CompileXPath(xpath string) (elem etree.Path, attr string, err error) {
	if xpath == "" {
		return etree.Path{}, "", fmt.Errorf("XPath expression is empty")
	}
	elemPath := xpath
	if idx := strings.LastIndex(xpath, "/@"); idx >= 0 {
		elemPath, attr = xpath[:idx], xpath[idx+2:]
		if attr == "" {
			return etree.Path{}, "", fmt.Errorf("invalid XPath expression %q: empty attribute name", xpath)
		}
		if elemPath == "" {
			elemPath = "."
		}
	}
	p, err := etree.CompilePath(elemPath)
	if err != nil {
		return etree.Path{}, "", fmt.Errorf("invalid XPath expression %q: %w", xpath, err)
	}
	return p, attr, nil
}

// ExtractXPath extracts the text value (or the attribute value when attr is
// set) of the first element the path selects. The second result is false
// when nothing is selected.
//
// Supported XPath syntax:
//   - /path/to/element - absolute path
//   - //element - find anywhere in document
//   - /path/to/element/@attr - attribute value
//   - /path/to/element[1] - indexed access (1-based)
func ExtractXPath(doc *etree.Document, path etree.Path, attr string) (string, bool) {
	if doc == nil {
		return "", false
	}
	element := doc.FindElementPath(path)
	if element == nil {
		return "", false
	}
	if attr == "" {
		return strings.TrimSpace(element.Text()), true
	}
	a := element.SelectAttr(attr)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
