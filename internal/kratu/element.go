package kratu

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewCell returns a detached table cell element
func NewCell() *html.Node {
	return NewElement(atom.Td)
}

// NewElement returns a detached element for a
func NewElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

// Text returns a text node
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr returns the value of the named attribute
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the element's class list
func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return strings.Fields(v)
}

// AddClass adds class to the element's class list once
func AddClass(n *html.Node, class string) {
	classes := Classes(n)
	for _, c := range classes {
		if c == class {
			return
		}
	}
	SetAttr(n, "class", strings.Join(append(classes, class), " "))
}

// HasClass reports whether the element carries class
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// InnerHTML renders the children of n
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
