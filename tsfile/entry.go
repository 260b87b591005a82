package tsfile

// Entry is a live view onto one message that needs a translation decision.
// It keeps a reference into the document tree, so Apply is reflected in the
// next Marshal without re-parsing.
type Entry struct {
	// ContextName is the name of the surrounding context.
	ContextName string

	msg *Message
	doc *Document
}

// Message returns the underlying message.
func (e *Entry) Message() *Message { return e.msg }

// Source returns the source text.
func (e *Entry) Source() string { return e.msg.Source }

// Comment returns the disambiguation comment.
func (e *Entry) Comment() string { return e.msg.Comment }

// ExtraComment returns the developer note.
func (e *Entry) ExtraComment() string { return e.msg.ExtraComment }

// Translation returns the current translation text.
func (e *Entry) Translation() string { return e.msg.Translation }

// Locations returns the source code locations referencing this string.
func (e *Entry) Locations() []Location { return e.msg.Locations }

// Unfinished reports whether the entry carries the unfinished marker.
func (e *Entry) Unfinished() bool { return e.msg.Unfinished() }

// Apply records a translation: the text replaces the current translation,
// the unfinished marker is cleared, and the document is marked dirty.
// Skipped entries are never passed here, so their marker and text survive
// serialization untouched.
func (e *Entry) Apply(text string) {
	e.msg.Translation = text
	e.msg.HasTranslation = true
	if e.msg.Type == TypeUnfinished {
		e.msg.Type = ""
	}
	e.doc.dirty = true
}

// Warning describes a malformed entry that was skipped during extraction.
type Warning struct {
	// ContextName is the surrounding context, empty when the context itself
	// is at fault.
	ContextName string
	// Reason is a short human-readable description.
	Reason string
}

// Pending walks the document in order and returns the entries that need a
// translation decision: every message whose translation is marked
// unfinished, plus — when includeEmpty is set — messages whose translation
// text is empty without the marker. Malformed messages (missing source or
// translation elements) are skipped and reported as warnings instead of
// being silently dropped. Re-scanning restarts the sequence.
func (d *Document) Pending(includeEmpty bool) ([]*Entry, []Warning) {
	var entries []*Entry
	var warns []Warning

	for _, c := range d.Contexts {
		if !c.HasName {
			warns = append(warns, Warning{Reason: "context without <name> element, skipping"})
			continue
		}
		for _, m := range c.Messages {
			if !m.HasTranslation {
				warns = append(warns, Warning{ContextName: c.Name, Reason: "message without <translation> element, skipping"})
				continue
			}
			if m.Type == TypeVanished || m.Type == TypeObsolete {
				continue
			}
			if !m.Unfinished() && !(includeEmpty && m.TranslationEmpty()) {
				continue
			}
			if !m.HasSource {
				warns = append(warns, Warning{ContextName: c.Name, Reason: "message without <source> element, skipping"})
				continue
			}
			if m.Numerus {
				// A single proposal cannot fill per-quantity plural forms.
				warns = append(warns, Warning{ContextName: c.Name, Reason: "numerus message needs Qt Linguist, skipping"})
				continue
			}
			entries = append(entries, &Entry{ContextName: c.Name, msg: m, doc: d})
		}
	}
	return entries, warns
}
