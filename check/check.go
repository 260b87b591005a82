// Package check scans a parsed TS document for structural issues without
// mutating it: contexts lacking a name, messages lacking source or
// translation elements, and empty required text.
package check

import (
	"fmt"

	"github.com/qt-l10n/tstrans/tsfile"
)

// Issue is one structural finding.
type Issue struct {
	// Context is the surrounding context name, empty when the context
	// itself is at fault and carries no name.
	Context string
	// Message is the 1-based message index within the context, 0 for
	// context-level findings.
	Message int
	// Problem is a short description.
	Problem string
}

func (i Issue) String() string {
	switch {
	case i.Message == 0 && i.Context == "":
		return i.Problem
	case i.Message == 0:
		return fmt.Sprintf("context %q: %s", i.Context, i.Problem)
	default:
		return fmt.Sprintf("context %q, message %d: %s", i.Context, i.Message, i.Problem)
	}
}

// Document runs all checks over doc and returns the findings in document
// order. An empty result means the file is structurally sound.
func Document(doc *tsfile.Document) []Issue {
	var issues []Issue

	if doc.Language == "" {
		issues = append(issues, Issue{Problem: "TS element has no language attribute"})
	}

	for _, c := range doc.Contexts {
		if !c.HasName {
			issues = append(issues, Issue{Problem: "context without <name> element"})
		} else if c.Name == "" {
			issues = append(issues, Issue{Problem: "context with empty name"})
		}

		for idx, m := range c.Messages {
			report := func(problem string) {
				issues = append(issues, Issue{Context: c.Name, Message: idx + 1, Problem: problem})
			}
			if !m.HasSource {
				report("message without <source> element")
			} else if m.Source == "" {
				report("message with empty source text")
			}
			if !m.HasTranslation {
				report("message without <translation> element")
			}
		}
	}
	return issues
}
