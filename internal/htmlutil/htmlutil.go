package htmlutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

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
	return Normalize(buffer.String())
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Normalize collapses whitespace (including non-breaking spaces) the way a
// browser renders it and trims the result.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Text is the normalized text of a selection.
func Text(sel *goquery.Selection) string {
	return Normalize(sel.Text())
}

func Attr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func HasAttr(node *html.Node, key string) bool {
	if node == nil {
		return false
	}
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

// CSSPath builds a selector that addresses exactly this element by walking
// up to the document root with :nth-of-type. It resolves the same way in a
// real browser and in goquery, so an element found on a parsed snapshot can
// be acted on in the live page.
func CSSPath(node *html.Node) string {
	var parts []string
	for n := node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.Parent == nil || n.Parent.Type != html.ElementNode {
			parts = append(parts, n.Data)
			continue
		}
		index := 1
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == n.Data {
				index++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", n.Data, index))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
