// Package page wraps a rendered DOM snapshot with CSS and XPath lookups.
// Every lookup reports absence instead of failing.
package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Page is an immutable snapshot of a loaded listing page.
type Page struct {
	url  string
	root *html.Node
	doc  *goquery.Document
}

// New parses markup captured from url.
func New(url, markup string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{
		url:  url,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// URL returns the address the snapshot was taken from.
func (p *Page) URL() string {
	return p.url
}

// Text returns the cleaned text of the first element matching selector.
func (p *Page) Text(selector string) (string, bool) {
	return firstText(p.doc.Find(selector))
}

// Texts returns the non-empty cleaned texts of all elements matching
// selector, in document order.
func (p *Page) Texts(selector string) []string {
	return texts(p.doc.Find(selector))
}

// Attr returns attribute name of the first element matching selector.
func (p *Page) Attr(selector, name string) (string, bool) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Attr(name)
}

// Scripts returns the raw bodies of script elements. When scriptType is not
// empty only scripts declaring that type are returned.
func (p *Page) Scripts(scriptType string) []string {
	selector := "script"
	if scriptType != "" {
		selector = fmt.Sprintf("script[type=%q]", scriptType)
	}
	var out []string
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

// XPathTexts returns the cleaned texts of nodes matching expr. An invalid
// expression yields nothing.
func (p *Page) XPathTexts(expr string) []string {
	nodes, err := htmlquery.QueryAll(p.root, expr)
	if err != nil {
		return nil
	}
	return texts(p.doc.FindNodes(nodes...))
}

// WithinXPath locates the first node matching expr and returns the texts of
// its descendants matching selector.
func (p *Page) WithinXPath(expr, selector string) ([]string, bool) {
	node, err := htmlquery.Query(p.root, expr)
	if err != nil || node == nil {
		return nil, false
	}
	return texts(p.doc.FindNodes(node).Find(selector)), true
}

func firstText(sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	text := CleanText(sel.First().Text())
	return text, text != ""
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := CleanText(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
