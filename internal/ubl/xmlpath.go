// Package ubl maps UBL 2.1 / CIUS-RO invoice documents to and from the editor model.
package ubl

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// UBL namespaces
const (
	NamespaceInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// child returns the first child element with the given local name, any prefix
func child(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// children returns every direct child element with the given local name
func children(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// find follows a chain of local names from e
func find(e *etree.Element, tags ...string) *etree.Element {
	for _, t := range tags {
		e = child(e, t)
		if e == nil {
			return nil
		}
	}
	return e
}

// text returns the trimmed text at the end of the chain, or ""
func text(e *etree.Element, tags ...string) string {
	if e = find(e, tags...); e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

// attr returns an attribute value by local name
func attr(e *etree.Element, key string) string {
	if e == nil {
		return ""
	}
	for _, a := range e.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// walk visits e and all of its descendants in document order
func walk(e *etree.Element, fn func(*etree.Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}

// charsetReader decodes the legacy encodings Romanian ERP exports still declare
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-2", "iso8859-2", "latin2":
		return charmap.ISO8859_2.NewDecoder().Reader(input), nil
	case "iso-8859-16", "iso8859-16", "latin10":
		return charmap.ISO8859_16.NewDecoder().Reader(input), nil
	case "windows-1250", "cp1250":
		return charmap.Windows1250.NewDecoder().Reader(input), nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
