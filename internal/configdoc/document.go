// Package configdoc wraps the firewall configuration XML behind a small,
// case-insensitive node API used by the extractor and the migration engine.
package configdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// ErrNoRoot is returned when the input parses but holds no root element.
var ErrNoRoot = errors.New("configuration document has no root element")

const xmlDeclaration = `version="1.0" encoding="UTF-8"`

// Document is a parsed configuration file. It is owned by one caller at a time.
type Document struct {
	doc *etree.Document
}

// Load parses a configuration document from r.
func Load(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrNoRoot
	}
	return &Document{doc: doc}, nil
}

// LoadFile opens and parses the document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Parse is Load over an in-memory buffer.
func Parse(b []byte) (*Document, error) {
	return Load(bytes.NewReader(b))
}

// Clone returns an independent deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{doc: d.doc.Copy()}
}

// Root returns the document's root element.
func (d *Document) Root() *Node {
	return wrap(d.doc.Root())
}

// WriteTo serializes the document with a declaration and two-space indentation.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.ensureDeclaration()
	d.doc.Indent(2)
	return d.doc.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Canonical renders a normalized copy of the document for comparison:
// attributes sorted by name, character data trimmed, whitespace-only text
// dropped, two-space indentation. The receiver is not modified.
func (d *Document) Canonical() ([]byte, error) {
	c := &Document{doc: d.doc.Copy()}
	if root := c.doc.Root(); root != nil {
		canonicalize(root)
	}
	return c.Bytes()
}

func (d *Document) ensureDeclaration() {
	for _, tok := range d.doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && strings.EqualFold(pi.Target, "xml") {
			return
		}
	}
	d.doc.InsertChildAt(0, &etree.ProcInst{Target: "xml", Inst: xmlDeclaration})
}

func canonicalize(el *etree.Element) {
	el.SortAttrs()
	var empty []etree.Token
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			t.Data = strings.TrimSpace(t.Data)
			if t.Data == "" {
				empty = append(empty, t)
			}
		case *etree.Element:
			canonicalize(t)
		}
	}
	for _, tok := range empty {
		el.RemoveChild(tok)
	}
}
