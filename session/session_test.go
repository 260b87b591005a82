package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/qt-l10n/tstrans/translate"
	"github.com/qt-l10n/tstrans/tsfile"
)

const testerTS = `<!DOCTYPE TS>
<TS version="2.1" language="ru_RU">
<context>
    <name>MainWindow</name>
    <message>
        <source>Hello</source>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source>Save</source>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source>Open</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>`

func pendingEntries(t *testing.T) (*tsfile.Document, []*tsfile.Entry) {
	t.Helper()
	doc, err := tsfile.Parse([]byte(testerTS))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	entries, warns := doc.Pending(false)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %+v", warns)
	}
	return doc, entries
}

// echoTranslator proposes "<source>-translated" for every entry.
func echoTranslator(ctx context.Context, e *tsfile.Entry) (*translate.Proposal, error) {
	return &translate.Proposal{
		Text:        e.Source() + "-translated",
		Explanation: "test proposal",
		Confidence:  "90%",
	}, nil
}

func newTestSession(input string, out *bytes.Buffer) *Session {
	return &Session{
		In:        strings.NewReader(input),
		Out:       out,
		Translate: echoTranslator,
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want Decision
		ok   bool
	}{
		{"accept", DecisionAccept, true},
		{"a", DecisionAccept, true},
		{"YES", DecisionAccept, true},
		{"y", DecisionAccept, true},
		{"skip", DecisionSkip, true},
		{"  s  ", DecisionSkip, true},
		{"no", DecisionSkip, true},
		{"edit", DecisionEdit, true},
		{"E", DecisionEdit, true},
		{"quit", DecisionQuit, true},
		{"q", DecisionQuit, true},
		{"", 0, false},
		{"maybe", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDecision(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseDecision(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRun_AcceptAll(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	saves := 0
	s := newTestSession("accept\naccept\naccept\n", &out)
	s.Save = func() error { saves++; return nil }

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 3 || res.Total != 3 || res.Quit {
		t.Errorf("result: %+v", res)
	}
	if saves != 3 {
		t.Errorf("saves: got %d, want 3", saves)
	}
	if !doc.Dirty() {
		t.Error("document should be dirty")
	}
	for i, m := range doc.Contexts[0].Messages {
		if m.Unfinished() {
			t.Errorf("message %d still unfinished", i)
		}
		if want := m.Source + "-translated"; m.Translation != want {
			t.Errorf("message %d: got %q, want %q", i, m.Translation, want)
		}
	}
}

func TestRun_SkipLeavesUntouched(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("skip\naccept\nskip\n", &out)
	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 || res.Quit {
		t.Errorf("result: %+v", res)
	}

	msgs := doc.Contexts[0].Messages
	if !msgs[0].Unfinished() || msgs[0].Translation != "" {
		t.Errorf("skipped message 0 changed: %+v", msgs[0])
	}
	if msgs[1].Unfinished() || msgs[1].Translation != "Save-translated" {
		t.Errorf("accepted message 1: %+v", msgs[1])
	}
	if !msgs[2].Unfinished() {
		t.Error("skipped message 2 changed")
	}
}

func TestRun_QuitStopsImmediately(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("accept\nquit\n", &out)
	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 || !res.Quit {
		t.Errorf("result: %+v", res)
	}
	// The third entry was never presented.
	if strings.Contains(out.String(), "Open") {
		t.Error("entry after quit was presented")
	}
	if doc.Contexts[0].Messages[2].Translation != "" {
		t.Error("entry after quit was modified")
	}
}

func TestRun_EOFQuits(t *testing.T) {
	_, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("accept\n", &out) // input ends after one decision
	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 || !res.Quit {
		t.Errorf("result: %+v", res)
	}
}

func TestRun_InvalidThenValid(t *testing.T) {
	_, entries := pendingEntries(t)
	var out bytes.Buffer

	var errorsSeen []string
	s := newTestSession("banana\naccept\nskip\nskip\n", &out)
	s.OnError = func(format string, args ...any) {
		errorsSeen = append(errorsSeen, fmt.Sprintf(format, args...))
	}

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("result: %+v", res)
	}
	if len(errorsSeen) != 1 || !strings.Contains(errorsSeen[0], "Invalid choice") {
		t.Errorf("errors: %v", errorsSeen)
	}
}

func TestRun_EditAppliesEditedText(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("edit\nskip\nskip\n", &out)
	s.Edit = func(initial string) (string, error) {
		if initial != "Hello-translated" {
			t.Errorf("editor seeded with %q", initial)
		}
		return "Привет!", nil
	}

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("result: %+v", res)
	}
	if got := doc.Contexts[0].Messages[0].Translation; got != "Привет!" {
		t.Errorf("translation: got %q", got)
	}
}

func TestRun_EditEmptyKeepsProposal(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("edit\nskip\nskip\n", &out)
	s.Edit = func(initial string) (string, error) { return "   ", nil }

	if _, err := s.Run(context.Background(), entries); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := doc.Contexts[0].Messages[0].Translation; got != "Hello-translated" {
		t.Errorf("translation: got %q, want the proposal", got)
	}
}

func TestRun_EditErrorReprompts(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("edit\naccept\nskip\nskip\n", &out)
	s.Edit = func(initial string) (string, error) { return "", errors.New("no editor") }
	s.OnError = func(format string, args ...any) {}

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("result: %+v", res)
	}
	if got := doc.Contexts[0].Messages[0].Translation; got != "Hello-translated" {
		t.Errorf("translation: got %q", got)
	}
}

func TestRun_InlineEditOnSharedInput(t *testing.T) {
	// Without an injected editor or $EDITOR, editing reads one line from
	// the decision stream.
	t.Setenv("EDITOR", "")
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	s := newTestSession("edit\nПривет из строки\nskip\nskip\n", &out)
	if _, err := s.Run(context.Background(), entries); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := doc.Contexts[0].Messages[0].Translation; got != "Привет из строки" {
		t.Errorf("translation: got %q", got)
	}
}

func TestRun_TranslateErrorSkipsEntry(t *testing.T) {
	doc, entries := pendingEntries(t)
	var out bytes.Buffer

	var errorsSeen int
	s := &Session{
		In:  strings.NewReader("accept\naccept\n"),
		Out: &out,
		Translate: func(ctx context.Context, e *tsfile.Entry) (*translate.Proposal, error) {
			if e.Source() == "Hello" {
				return nil, &translate.RequestError{Status: 500, Body: "boom"}
			}
			return echoTranslator(ctx, e)
		},
		OnError: func(format string, args ...any) { errorsSeen++ },
	}

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 2 {
		t.Errorf("result: %+v", res)
	}
	if errorsSeen != 1 {
		t.Errorf("errors: got %d, want 1", errorsSeen)
	}
	if doc.Contexts[0].Messages[0].Translation != "" {
		t.Error("failed entry was modified")
	}
}

func TestRun_ContextCancelStops(t *testing.T) {
	_, entries := pendingEntries(t)
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	applied := 0
	s := &Session{
		In:  strings.NewReader("accept\naccept\naccept\n"),
		Out: &out,
		Translate: func(c context.Context, e *tsfile.Entry) (*translate.Proposal, error) {
			if e.Source() == "Save" {
				cancel()
				return nil, c.Err()
			}
			return echoTranslator(c, e)
		},
		Save: func() error { applied++; return nil },
	}

	res, err := s.Run(ctx, entries)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Applied != 1 || applied != 1 {
		t.Errorf("result: %+v, saves %d", res, applied)
	}
}

func TestRun_SaveFailureWarnsAndContinues(t *testing.T) {
	_, entries := pendingEntries(t)
	var out bytes.Buffer

	warned := 0
	s := newTestSession("accept\naccept\naccept\n", &out)
	s.Save = func() error { return errors.New("disk full") }
	s.OnWarn = func(format string, args ...any) { warned++ }

	res, err := s.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Applied != 3 {
		t.Errorf("result: %+v", res)
	}
	if warned != 3 {
		t.Errorf("warnings: got %d, want 3", warned)
	}
}

func TestPresent_ShowsEntryFields(t *testing.T) {
	doc, err := tsfile.Parse([]byte(`<!DOCTYPE TS>
<TS version="2.1" language="de_DE">
<context>
    <name>Dialog</name>
    <message>
        <location filename="dialog.cpp" line="42"/>
        <source>Cancel</source>
        <comment>button</comment>
        <extracomment>bottom right</extracomment>
        <translation type="unfinished">Abbr</translation>
    </message>
</context>
</TS>`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	entries, _ := doc.Pending(false)
	var out bytes.Buffer

	s := newTestSession("skip\n", &out)
	if _, err := s.Run(context.Background(), entries); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	for _, want := range []string{
		"dialog.cpp:42", "Dialog", "Cancel", "button", "bottom right",
		"Abbr", "test proposal", "90%", "Cancel-translated",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}
