// Package document substitutes generated estimate content into HTML
// templates. Regions are elements marked with data-region="<name>"; a region
// the template does not carry is skipped, never an error.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// RegionAttr marks a replaceable element.
const RegionAttr = "data-region"

// Document is a parsed HTML template.
type Document struct {
	root *html.Node
}

// Parse parses a complete HTML document.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Document{root: root}, nil
}

// Render serializes the document.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}

// HasRegion reports whether the document carries the named region.
func (d *Document) HasRegion(name string) bool {
	return d.region(name) != nil
}

// Regions lists region names in document order.
func (d *Document) Regions() []string {
	var names []string
	walk(d.root, func(n *html.Node) {
		if v, ok := attr(n, RegionAttr); ok {
			names = append(names, v)
		}
	})
	return names
}

// ReplaceRegion replaces the children of the named region with the parsed
// fragment. It returns false when the region is missing.
func (d *Document) ReplaceRegion(name, fragment string) (bool, error) {
	n := d.region(name)
	if n == nil {
		return false, nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), n)
	if err != nil {
		return false, fmt.Errorf("parse %s fragment: %w", name, err)
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return true, nil
}

// SetText replaces the children of the named region with escaped text.
func (d *Document) SetText(name, text string) bool {
	n := d.region(name)
	if n == nil {
		return false
	}
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return true
}

// ReplacePlaceholders substitutes tokens such as "[프로젝트명]" in text nodes
// and attribute values.
func (d *Document) ReplacePlaceholders(values map[string]string) {
	if len(values) == 0 {
		return
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)

	walk(d.root, func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			n.Data = r.Replace(n.Data)
		case html.ElementNode:
			for i := range n.Attr {
				n.Attr[i].Val = r.Replace(n.Attr[i].Val)
			}
		}
	})
}

func (d *Document) region(name string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) {
		if found != nil {
			return
		}
		if v, ok := attr(n, RegionAttr); ok && v == name {
			found = n
		}
	})
	return found
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
