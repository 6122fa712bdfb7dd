// Package htmltomarkdown converts documentation HTML fragments into
// chat-friendly markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/AbstractUmbra/doccache"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Ensure Converter implements doccache.Converter at compile time.
var _ doccache.Converter = (*Converter)(nil)

// Chat clients render markdown headings poorly, so headings are
// demoted to bold text after conversion.
var headingRE = regexp.MustCompile(`(?m)^#{1,6} +(.+)$`)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms an HTML fragment into Markdown. Relative links
// are resolved against pageURL so they stay clickable outside the
// documentation site.
func (c *Converter) Convert(html string, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	result, err := c.conv.ConvertString(html, converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}

	result = headingRE.ReplaceAllString(result, "**$1**")
	return strings.TrimSpace(result), nil
}
