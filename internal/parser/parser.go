// Package parser extracts the YAML front matter, redirect target and first
// heading from Markdown documents.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RedirectKey is the front matter field naming a document's new location.
const RedirectKey = "redirect_url"

var (
	frontmatterRe = regexp.MustCompile(`^-{3}\s*\r?\n([\s\S]*?)-{3}\s*\r?\n([\s\S]*)`)
	headingRe     = regexp.MustCompile(`\n {0,3}(#{1,6})(.*)`)
)

// ErrRedirectNotScalar is returned when redirect_url holds a list or mapping.
var ErrRedirectNotScalar = errors.New("redirect_url must be a single value")

// Result holds the output of parsing a Markdown document.
type Result struct {
	// Metadata is the raw text between the delimiters, empty when absent.
	Metadata    string
	Frontmatter map[string]any
	Body        string
	Title       string

	RedirectURL string
	HasRedirect bool
}

// Split separates a leading front matter block from the rest of the document.
// ok is false when the document does not start with a delimited block.
func Split(text string) (metadata, body string, ok bool) {
	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil {
		return "", text, false
	}
	return m[1], m[2], true
}

// Parse extracts front matter, redirect target, body and title from raw
// Markdown bytes. Documents without front matter are not an error; malformed
// YAML is.
func Parse(data []byte) (*Result, error) {
	text := string(data)
	metadata, body, ok := Split(text)

	res := &Result{Metadata: metadata, Body: body}
	res.Title = FirstHeading(body)
	if !ok || strings.TrimSpace(metadata) == "" {
		return res, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(metadata), &doc); err != nil {
		return nil, fmt.Errorf("parser: front matter: %w", err)
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		// A scalar or list header has no keys to look up.
		return res, nil
	}

	var fm map[string]any
	if err := root.Decode(&fm); err != nil {
		return nil, fmt.Errorf("parser: front matter: %w", err)
	}
	res.Frontmatter = fm

	url, found, err := lookupFold(root, RedirectKey)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	res.RedirectURL, res.HasRedirect = url, found
	return res, nil
}

// lookupFold finds key in a mapping node ignoring case. When several keys
// fold to the same name the last one in the document wins. A null value
// counts as absent.
func lookupFold(mapping *yaml.Node, key string) (string, bool, error) {
	var value *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if strings.EqualFold(mapping.Content[i].Value, key) {
			value = mapping.Content[i+1]
		}
	}
	if value == nil {
		return "", false, nil
	}
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind != yaml.ScalarNode {
		return "", false, ErrRedirectNotScalar
	}
	if value.Tag == "!!null" {
		return "", false, nil
	}
	return value.Value, true, nil
}

// FirstHeading returns the text of the first ATX heading in body, or empty
// string. The heading may be indented by up to three spaces.
func FirstHeading(body string) string {
	m := headingRe.FindStringSubmatch("\n" + body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[2])
}
