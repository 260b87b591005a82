// Package session drives the interactive confirm/skip/edit/quit loop over
// pending TS entries.
//
// The loop is an explicit state machine: each entry is Presented with its
// proposal, then the operator Decides; accept and edit lead to Applying
// (translation written into the live entry, unfinished marker cleared),
// skip leaves the entry untouched, quit ends the session immediately.
// Decisions are read from an injectable reader and the editor is an
// injectable function, so the whole loop is testable without a terminal.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/qt-l10n/tstrans/i18n"
	"github.com/qt-l10n/tstrans/translate"
	"github.com/qt-l10n/tstrans/tsfile"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorCyan   = "\033[0;36m"
)

// ---------------------------------------------------------------------------
// Decisions
// ---------------------------------------------------------------------------

// Decision is one operator choice for a presented entry.
type Decision int

const (
	// DecisionAccept applies the proposed translation.
	DecisionAccept Decision = iota
	// DecisionSkip leaves the entry untouched.
	DecisionSkip
	// DecisionEdit opens the proposal for editing, then applies.
	DecisionEdit
	// DecisionQuit ends the session immediately.
	DecisionQuit
)

// parseDecision maps an input token to a decision, case-insensitively.
func parseDecision(tok string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "accept", "a", "yes", "y":
		return DecisionAccept, true
	case "skip", "s", "no", "n":
		return DecisionSkip, true
	case "edit", "e":
		return DecisionEdit, true
	case "quit", "q":
		return DecisionQuit, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Translator produces a proposal for one entry.
type Translator func(ctx context.Context, e *tsfile.Entry) (*translate.Proposal, error)

// Editor returns replacement text for a proposal. An empty result keeps the
// proposal.
type Editor func(initial string) (string, error)

// Session holds the wiring for one interactive run.
type Session struct {
	// In supplies operator decisions, one token per line.
	In io.Reader
	// Out receives all presentation output.
	Out io.Writer
	// Translate requests a proposal per entry.
	Translate Translator
	// Edit overrides the editor; nil uses $EDITOR or an inline prompt.
	Edit Editor
	// Save persists the document after each applied change.
	Save func() error
	// OnWarn and OnError report non-fatal conditions.
	OnWarn  func(format string, args ...any)
	OnError func(format string, args ...any)

	scanner *bufio.Scanner
}

// Result summarizes a finished session.
type Result struct {
	// Applied is the number of entries whose translation was written.
	Applied int
	// Total is the number of entries presented or pending at the start.
	Total int
	// Quit reports that the operator ended the session early.
	Quit bool
}

func (s *Session) warnf(format string, args ...any) {
	if s.OnWarn != nil {
		s.OnWarn(format, args...)
	}
}

func (s *Session) errorf(format string, args ...any) {
	if s.OnError != nil {
		s.OnError(format, args...)
	}
}

// Run processes entries in order until the sequence ends, the operator
// quits, or ctx is cancelled. Already-applied changes survive all three.
func (s *Session) Run(ctx context.Context, entries []*tsfile.Entry) (Result, error) {
	res := Result{Total: len(entries)}
	s.scanner = bufio.NewScanner(s.In)

	for _, e := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		s.present(e)

		prop, err := s.Translate(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.errorf("%v", err)
			continue
		}
		s.presentProposal(prop)

		quit, applied := s.decide(e, prop)
		if applied {
			res.Applied++
		}
		if quit {
			res.Quit = true
			fmt.Fprintln(s.Out, colorCyan+i18n.T("Quitting...")+colorReset)
			return res, nil
		}
	}
	return res, nil
}

// present shows one entry: separator, locations, context, source, comments,
// and the current translation when one exists.
func (s *Session) present(e *tsfile.Entry) {
	fmt.Fprintf(s.Out, "\n%s%s%s\n", colorYellow, strings.Repeat("=", 80), colorReset)

	for _, loc := range e.Locations() {
		if loc.Filename != "" {
			fmt.Fprintf(s.Out, "%s%s%s %s:%s\n", colorBlue, i18n.T("Location:"), colorReset, loc.Filename, loc.Line)
		}
	}

	fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Context:"), colorReset, e.ContextName)
	fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Source:"), colorReset, e.Source())
	if e.Comment() != "" {
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Comment:"), colorReset, e.Comment())
	}
	if e.ExtraComment() != "" {
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Extracomment:"), colorReset, e.ExtraComment())
	}

	if cur := e.Translation(); cur != "" {
		label := i18n.T("Current translation:")
		if e.Unfinished() {
			label = i18n.T("Current unfinished translation:")
		}
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, label, colorReset, cur)
	}
}

func (s *Session) presentProposal(prop *translate.Proposal) {
	if prop.Explanation != "" {
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Explanation:"), colorReset, prop.Explanation)
	}
	if prop.Confidence != "" {
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Confidence:"), colorReset, prop.Confidence)
	}
	if prop.Text != "" {
		fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Translated text:"), colorReset, prop.Text)
	}
}

// decide runs the Deciding state for one entry until a decision resolves
// it. Returns quit and whether a translation was applied.
func (s *Session) decide(e *tsfile.Entry, prop *translate.Proposal) (quit, applied bool) {
	for {
		fmt.Fprintf(s.Out, "%s%s%s", colorYellow, i18n.T("Accept this translation? (accept/skip/edit/quit): "), colorReset)

		if !s.scanner.Scan() {
			// Input closed: treat as quit so progress is saved.
			return true, false
		}

		dec, ok := parseDecision(s.scanner.Text())
		if !ok {
			s.errorf("%s", i18n.T("Invalid choice. Please enter accept, skip, edit, or quit."))
			continue
		}

		switch dec {
		case DecisionAccept:
			s.apply(e, prop.Text)
			return false, true

		case DecisionSkip:
			fmt.Fprintln(s.Out, colorCyan+i18n.T("Skipping this translation.")+colorReset)
			return false, false

		case DecisionEdit:
			text, err := s.editText(prop.Text)
			if err != nil {
				s.errorf("editing translation: %v", err)
				continue
			}
			if strings.TrimSpace(text) == "" {
				text = prop.Text
			}
			fmt.Fprintf(s.Out, "%s%s%s %s\n", colorGreen, i18n.T("Edited translation:"), colorReset, text)
			s.apply(e, text)
			return false, true

		case DecisionQuit:
			return true, false
		}
	}
}

// apply is the Applying state: write the text into the live entry and
// persist partial progress right away.
func (s *Session) apply(e *tsfile.Entry, text string) {
	e.Apply(text)
	if s.Save != nil {
		if err := s.Save(); err != nil {
			s.warnf("saving progress: %v", err)
		}
	}
}

// editText obtains replacement text: the injected editor when set, $EDITOR
// on a temp file when available, otherwise a single inline input line.
func (s *Session) editText(initial string) (string, error) {
	if s.Edit != nil {
		return s.Edit(initial)
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editWithEditor(editor, initial)
	}

	fmt.Fprintf(s.Out, "%s%s%s", colorYellow, i18n.T("Replacement translation (empty keeps the proposal): "), colorReset)
	if !s.scanner.Scan() {
		return "", s.scanner.Err()
	}
	return s.scanner.Text(), nil
}

// editWithEditor runs an external editor on a temp file seeded with the
// proposal and returns the trimmed result.
func editWithEditor(editor, initial string) (string, error) {
	tmp, err := os.CreateTemp("", "tstrans-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(initial); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editor, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited translation: %w", err)
	}
	return strings.TrimSpace(string(edited)), nil
}
