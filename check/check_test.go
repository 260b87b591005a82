package check

import (
	"strings"
	"testing"

	"github.com/qt-l10n/tstrans/tsfile"
)

func parse(t *testing.T, ts string) *tsfile.Document {
	t.Helper()
	doc, err := tsfile.Parse([]byte(ts))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return doc
}

func TestDocument_Clean(t *testing.T) {
	doc := parse(t, `<!DOCTYPE TS>
<TS version="2.1" language="ru_RU">
<context>
    <name>MainWindow</name>
    <message>
        <source>Hello</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>`)
	if issues := Document(doc); len(issues) != 0 {
		t.Errorf("issues on clean document: %+v", issues)
	}
}

func TestDocument_Issues(t *testing.T) {
	doc := parse(t, `<!DOCTYPE TS>
<TS version="2.1">
<context>
    <message>
        <source>no context name</source>
        <translation></translation>
    </message>
</context>
<context>
    <name>Dialog</name>
    <message>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source></source>
        <translation></translation>
    </message>
    <message>
        <source>no translation element</source>
    </message>
</context>
</TS>`)

	issues := Document(doc)
	wants := []string{
		"no language attribute",
		"context without <name>",
		"without <source>",
		"empty source",
		"without <translation>",
	}
	if len(issues) != len(wants) {
		t.Fatalf("issues: got %d, want %d: %+v", len(issues), len(wants), issues)
	}
	for i, want := range wants {
		if !strings.Contains(issues[i].String(), want) {
			t.Errorf("issue %d: got %q, want substring %q", i, issues[i].String(), want)
		}
	}
}

func TestIssueString(t *testing.T) {
	tests := []struct {
		issue Issue
		want  string
	}{
		{Issue{Problem: "no language"}, "no language"},
		{Issue{Context: "Dialog", Problem: "bad"}, `context "Dialog": bad`},
		{Issue{Context: "Dialog", Message: 2, Problem: "bad"}, `context "Dialog", message 2: bad`},
	}
	for _, tt := range tests {
		if got := tt.issue.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
