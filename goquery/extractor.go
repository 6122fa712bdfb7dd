// Package goquery implements symbol documentation extraction from
// Sphinx-generated HTML pages.
package goquery

import (
	"fmt"
	"strings"

	"github.com/AbstractUmbra/doccache"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Ensure Extractor implements doccache.SymbolExtractor at compile time.
var _ doccache.SymbolExtractor = (*Extractor)(nil)

// maxSignatures caps how many dt signatures are rendered for a symbol
// with overloads or aliases.
const maxSignatures = 3

// maxDescriptionLength caps the rendered description; anything longer
// is truncated on a word boundary with a link to the full page.
const maxDescriptionLength = 1000

// Symbol groups documented as free-form page sections rather than
// dt/dd definition lists.
var noSignatureGroups = map[string]bool{
	"module": true,
	"label":  true,
	"doc":    true,
}

// Tag classes that terminate a general description: the next symbol's
// definition or a page-structure element.
var descriptionEndClasses = []string{
	"data",
	"function",
	"class",
	"exception",
	"seealso",
	"section",
	"rubric",
	"sphinxsidebar",
}

// Extractor renders the documentation for one symbol out of a Sphinx
// HTML page.
type Extractor struct {
	converter doccache.Converter
}

// NewExtractor creates an Extractor rendering descriptions through the
// given converter.
func NewExtractor(converter doccache.Converter) *Extractor {
	return &Extractor{converter: converter}
}

// Extract locates item's symbol id in the page and renders its
// signatures and description as markdown. Returns an empty string with
// a nil error when the id is no longer present on the page.
func (e *Extractor) Extract(pageHTML string, item doccache.DocItem) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", doccache.Errorf(doccache.EINVALID, "failed to parse HTML: %v", err)
	}

	sel := doc.Find(fmt.Sprintf("[id=%q]", item.SymbolID))
	if sel.Length() == 0 || len(sel.Nodes) == 0 {
		return "", nil
	}
	symbol := sel.Nodes[0]

	var signatures []string
	var description []*html.Node
	if noSignatureGroups[item.Group] || symbol.Data != "dt" {
		description = generalDescription(symbol)
	} else {
		signatures = collectSignatures(symbol)
		description = definitionDescription(symbol)
	}

	markdown, err := e.converter.Convert(renderNodes(description), item.URL())
	if err != nil {
		return "", err
	}
	markdown = strings.ReplaceAll(markdown, "¶", "")
	markdown = truncateDescription(markdown, item.URL()+"#"+item.SymbolID)

	var out strings.Builder
	for _, signature := range signatures {
		out.WriteString("```py\n")
		out.WriteString(signature)
		out.WriteString("```\n")
	}
	if out.Len() > 0 {
		out.WriteString("\n")
	}
	out.WriteString(markdown)
	return strings.TrimSpace(out.String()), nil
}

// generalDescription collects the sibling content following the symbol
// heading, up to a table or a known section boundary. When the heading
// contains a headerlink anchor the search starts at the anchor's
// parent so the heading text itself is not repeated.
func generalDescription(symbol *html.Node) []*html.Node {
	start := symbol
	if anchor := findDescendantWithClass(symbol, "headerlink", 100); anchor != nil && anchor.Parent != nil {
		start = anchor.Parent
	}

	var nodes []*html.Node
	for n := start.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			if n.Data == "table" || hasAnyClass(n, descriptionEndClasses...) {
				break
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// collectSignatures gathers up to maxSignatures signature texts from
// the dt tags around symbol: the symbol's own dt plus overloads listed
// directly above and below it, preferring the ones below.
func collectSignatures(symbol *html.Node) []string {
	var group []*html.Node

	var above []*html.Node
	for n := symbol.PrevSibling; n != nil && len(above) < 2; n = n.PrevSibling {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == "dd" {
			break
		}
		above = append(above, n)
	}
	for i := len(above) - 1; i >= 0; i-- {
		group = append(group, above[i])
	}

	group = append(group, symbol)

	for n := symbol.NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		if n.Data == "dd" || len(group) >= len(above)+1+2 {
			break
		}
		group = append(group, n)
	}

	if len(group) > maxSignatures {
		group = group[len(group)-maxSignatures:]
	}

	var signatures []string
	for _, n := range group {
		stripSignatureLinks(n)
		if text := nodeText(n); text != "" {
			signatures = append(signatures, text)
		}
	}
	return signatures
}

// definitionDescription returns the contents of the dd tag following
// the symbol's dt, up to a nested dt or dl boundary.
func definitionDescription(symbol *html.Node) []*html.Node {
	var dd *html.Node
	for n := symbol.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "dd" {
			dd = n
			break
		}
	}
	if dd == nil {
		return nil
	}

	var nodes []*html.Node
	for n := dd.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && (n.Data == "dt" || n.Data == "dl") {
			break
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// stripSignatureLinks removes headerlink anchors and source-code links
// from a signature tag so they don't leak into the rendered text.
func stripSignatureLinks(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isSignatureLink(c) {
			n.RemoveChild(c)
		}
		c = next
	}
}

func isSignatureLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "a" {
		return false
	}
	if hasAnyClass(n, "headerlink") {
		return true
	}
	return findDescendantWithClass(n, "viewcode-link", 100) != nil
}

// findDescendantWithClass walks up to limit descendants of n in
// document order and returns the first one carrying class.
func findDescendantWithClass(n *html.Node, class string, limit int) *html.Node {
	var walk func(node *html.Node) *html.Node
	visited := 0
	walk = func(node *html.Node) *html.Node {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if visited >= limit {
				return nil
			}
			visited++
			if c.Type == html.ElementNode && hasAnyClass(c, class) {
				return c
			}
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(n)
}

func hasAnyClass(n *html.Node, classes ...string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, have := range strings.Fields(attr.Val) {
			for _, want := range classes {
				if have == want {
					return true
				}
			}
		}
	}
	return false
}

// nodeText concatenates every text node under n, like a rendered
// element's visible text.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// renderNodes serializes nodes back to an HTML fragment.
func renderNodes(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		// Render errors only occur for exotic node types that never
		// appear in parsed documents.
		_ = html.Render(&b, n)
	}
	return b.String()
}

// truncateDescription cuts markdown down to maxDescriptionLength on a
// word boundary and appends a link to the full documentation.
func truncateDescription(markdown, url string) string {
	if len(markdown) <= maxDescriptionLength {
		return markdown
	}

	cut := markdown[:maxDescriptionLength]
	if i := strings.LastIndexAny(cut, " \n"); i > 0 {
		cut = cut[:i]
	}
	cut = strings.TrimRight(cut, " \n.,:;")
	return cut + fmt.Sprintf("... [read more](%s)", url)
}
