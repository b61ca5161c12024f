package htmlutil

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text of node and all of its descendants.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// OwnText returns only the text nodes that are direct children of node.
func OwnText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var buffer bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			buffer.WriteString(child.Data)
		}
	}
	return buffer.String()
}

// FindByOwnText returns the first element under sel (in document order)
// whose own text contains substr.
func FindByOwnText(sel *goquery.Selection, substr string) *html.Node {
	for _, root := range sel.Nodes {
		found := findByOwnText(root, substr)
		if found != nil {
			return found
		}
	}
	return nil
}

func findByOwnText(node *html.Node, substr string) *html.Node {
	if node.Type == html.ElementNode && strings.Contains(OwnText(node), substr) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		found := findByOwnText(child, substr)
		if found != nil {
			return found
		}
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// Clean drops non-ascii characters, line breaks and tabs, collapses the
// remaining whitespace runs into single spaces and trims the result.
func Clean(s string) string {
	var out strings.Builder
	for _, c := range s {
		if c > 127 || c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		out.WriteRune(c)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(out.String(), " "))
}

// SelectionText is GetText over every node in a goquery selection.
func SelectionText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return buffer.String()
}
