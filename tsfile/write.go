package tsfile

import (
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteFile serializes the document back to path, overwriting it.
func (d *Document) WriteFile(path string) error {
	if err := os.WriteFile(path, d.Marshal(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Marshal produces TS XML output with the Qt prolog and lupdate-style
// indentation: <context> at column 0, its children at 4 spaces, message
// children at 8.
func (d *Document) Marshal() []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<!DOCTYPE TS>\n")

	b.WriteString("<TS")
	if d.Version != "" {
		b.WriteString(` version="` + attrEscape(d.Version) + `"`)
	}
	if d.Language != "" {
		b.WriteString(` language="` + attrEscape(d.Language) + `"`)
	}
	if d.SourceLanguage != "" {
		b.WriteString(` sourcelanguage="` + attrEscape(d.SourceLanguage) + `"`)
	}
	b.WriteString(">\n")

	for _, c := range d.Contexts {
		b.WriteString("<context>\n")
		if c.HasName {
			b.WriteString("    <name>" + textEscape(c.Name) + "</name>\n")
		}
		for _, m := range c.Messages {
			marshalMessage(&b, m)
		}
		b.WriteString("</context>\n")
	}

	b.WriteString("</TS>\n")
	return []byte(b.String())
}

func marshalMessage(b *strings.Builder, m *Message) {
	if m.Numerus {
		b.WriteString("    <message numerus=\"yes\">\n")
	} else {
		b.WriteString("    <message>\n")
	}

	for _, loc := range m.Locations {
		b.WriteString("        <location")
		if loc.Filename != "" {
			b.WriteString(` filename="` + attrEscape(loc.Filename) + `"`)
		}
		if loc.Line != "" {
			b.WriteString(` line="` + attrEscape(loc.Line) + `"`)
		}
		b.WriteString("/>\n")
	}
	if m.HasSource {
		b.WriteString("        <source>" + textEscape(m.Source) + "</source>\n")
	}
	if m.OldSource != "" {
		b.WriteString("        <oldsource>" + textEscape(m.OldSource) + "</oldsource>\n")
	}
	if m.Comment != "" {
		b.WriteString("        <comment>" + textEscape(m.Comment) + "</comment>\n")
	}
	if m.ExtraComment != "" {
		b.WriteString("        <extracomment>" + textEscape(m.ExtraComment) + "</extracomment>\n")
	}
	if m.TranslatorComment != "" {
		b.WriteString("        <translatorcomment>" + textEscape(m.TranslatorComment) + "</translatorcomment>\n")
	}
	if m.HasTranslation {
		b.WriteString("        <translation")
		if m.Type != "" {
			b.WriteString(` type="` + attrEscape(m.Type) + `"`)
		}
		b.WriteString(">")
		if m.Numerus {
			b.WriteString("\n")
			for _, form := range m.NumerusForms {
				b.WriteString("            <numerusform>" + textEscape(form) + "</numerusform>\n")
			}
			b.WriteString("        ")
		} else {
			b.WriteString(textEscape(m.Translation))
		}
		b.WriteString("</translation>\n")
	}

	b.WriteString("    </message>\n")
}

// textEscape escapes text content for an XML element.
func textEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// attrEscape escapes an attribute value (double-quoted).
func attrEscape(s string) string {
	s = textEscape(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
