// Package tsfile implements reading and writing of Qt Linguist .ts
// translation source files.
//
// A TS file is an XML document of <context> blocks, each holding a name and
// a list of <message> elements. Every message carries a <source>, optional
// <comment>/<extracomment>/<translatorcomment>, optional <location> markers,
// and one <translation> that may be flagged type="unfinished". The parsed
// Document is a mutable tree: entries handed out by Pending hold live
// *Message references, so applying a translation is immediately visible to
// Marshal/WriteFile.
package tsfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ParseError reports a malformed TS document. It wraps the underlying XML
// decoder diagnostic so callers can show the full detail in debug mode.
type ParseError struct {
	// Path is the file path, empty when parsing from memory.
	Path string
	// Err is the underlying decoder error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parsing TS document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// Translation type attribute values used by Qt Linguist.
const (
	// TypeUnfinished marks a translation that is not yet approved.
	TypeUnfinished = "unfinished"
	// TypeVanished marks a translation whose source string disappeared.
	TypeVanished = "vanished"
	// TypeObsolete is the pre-Qt5 spelling of vanished.
	TypeObsolete = "obsolete"
)

// Location is a <location filename=… line=…/> marker inside a message.
type Location struct {
	Filename string
	Line     string
}

// Message is one translatable unit inside a context.
type Message struct {
	// Locations are the source code positions that reference this string.
	Locations []Location
	// Source is the text of the <source> element; HasSource distinguishes
	// an empty source from a missing one.
	Source    string
	HasSource bool
	// Comment is the disambiguation comment (<comment>).
	Comment string
	// ExtraComment is the developer note (<extracomment>).
	ExtraComment string
	// TranslatorComment is the translator note (<translatorcomment>).
	TranslatorComment string
	// OldSource preserves a <oldsource> element verbatim.
	OldSource string
	// Translation is the text of the <translation> element. For numerus
	// messages the per-form texts live in NumerusForms instead.
	Translation    string
	HasTranslation bool
	// Type is the translation's type attribute (unfinished, vanished,
	// obsolete, or empty for a finished translation).
	Type string
	// Numerus reports numerus="yes" on the message.
	Numerus bool
	// NumerusForms holds <numerusform> texts in document order.
	NumerusForms []string
}

// Unfinished reports whether the translation carries the unfinished marker.
func (m *Message) Unfinished() bool { return m.Type == TypeUnfinished }

// TranslationEmpty reports whether the message has no translated text.
func (m *Message) TranslationEmpty() bool {
	if m.Numerus {
		for _, f := range m.NumerusForms {
			if strings.TrimSpace(f) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(m.Translation) == ""
}

// Context is a named group of messages.
type Context struct {
	// Name is the text of the <name> element; HasName distinguishes an
	// empty name from a missing one.
	Name    string
	HasName bool
	// Messages in document order.
	Messages []*Message
}

// Document is a parsed TS file.
type Document struct {
	// Version is the TS format version attribute (e.g. "2.1").
	Version string
	// Language is the target language code (e.g. "ru_RU").
	Language string
	// SourceLanguage is the optional sourcelanguage attribute.
	SourceLanguage string
	// Contexts in document order.
	Contexts []*Context

	dirty bool
}

// Dirty reports whether any translation was applied since parsing.
func (d *Document) Dirty() bool { return d.dirty }

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a TS file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse parses TS XML data.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	doc := &Document{}
	sawTS := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "TS":
				sawTS = true
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "version":
						doc.Version = attr.Value
					case "language":
						doc.Language = attr.Value
					case "sourcelanguage":
						doc.SourceLanguage = attr.Value
					}
				}
			case "context":
				c, err := parseContext(dec)
				if err != nil {
					return nil, &ParseError{Err: err}
				}
				doc.Contexts = append(doc.Contexts, c)
			default:
				if !sawTS {
					return nil, &ParseError{Err: fmt.Errorf("unexpected root element <%s>, want <TS>", t.Name.Local)}
				}
				dec.Skip()
			}
		}
	}

	if !sawTS {
		return nil, &ParseError{Err: errors.New("no <TS> root element found")}
	}
	return doc, nil
}

// parseContext parses a <context> element already opened.
func parseContext(dec *xml.Decoder) (*Context, error) {
	c := &Context{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <context>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading context <name>: %w", err)
				}
				c.Name = text
				c.HasName = true
			case "message":
				m, err := parseMessage(dec, t)
				if err != nil {
					return nil, err
				}
				c.Messages = append(c.Messages, m)
			default:
				dec.Skip()
			}
		case xml.EndElement:
			if t.Name.Local == "context" {
				return c, nil
			}
		}
	}
}

// parseMessage parses a <message> element already opened.
func parseMessage(dec *xml.Decoder, elem xml.StartElement) (*Message, error) {
	m := &Message{}
	for _, attr := range elem.Attr {
		if attr.Name.Local == "numerus" && strings.EqualFold(attr.Value, "yes") {
			m.Numerus = true
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <message>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "location":
				var loc Location
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "filename":
						loc.Filename = attr.Value
					case "line":
						loc.Line = attr.Value
					}
				}
				m.Locations = append(m.Locations, loc)
				dec.Skip()
			case "source":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading <source>: %w", err)
				}
				m.Source = text
				m.HasSource = true
			case "oldsource":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading <oldsource>: %w", err)
				}
				m.OldSource = text
			case "comment":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading <comment>: %w", err)
				}
				m.Comment = text
			case "extracomment":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading <extracomment>: %w", err)
				}
				m.ExtraComment = text
			case "translatorcomment":
				text, err := readElementText(dec)
				if err != nil {
					return nil, fmt.Errorf("reading <translatorcomment>: %w", err)
				}
				m.TranslatorComment = text
			case "translation":
				if err := parseTranslation(dec, t, m); err != nil {
					return nil, err
				}
			default:
				dec.Skip()
			}
		case xml.EndElement:
			if t.Name.Local == "message" {
				return m, nil
			}
		}
	}
}

// parseTranslation parses a <translation> element already opened, including
// <numerusform> children for numerus messages.
func parseTranslation(dec *xml.Decoder, elem xml.StartElement, m *Message) error {
	m.HasTranslation = true
	for _, attr := range elem.Attr {
		if attr.Name.Local == "type" {
			m.Type = attr.Value
		}
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading <translation>: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if t.Name.Local == "numerusform" {
				form, err := readElementText(dec)
				if err != nil {
					return fmt.Errorf("reading <numerusform>: %w", err)
				}
				m.NumerusForms = append(m.NumerusForms, form)
			} else {
				dec.Skip()
			}
		case xml.EndElement:
			if t.Name.Local == "translation" {
				if m.Numerus {
					// Numerus translations keep only form texts; the
					// surrounding whitespace is formatting.
					m.Translation = ""
				} else {
					m.Translation = text.String()
				}
				return nil
			}
		}
	}
}

// readElementText reads character data until the matching close tag.
// Nested elements are skipped; TS message payloads are plain text.
func readElementText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 1 {
				b.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return b.String(), nil
}
