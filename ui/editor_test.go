package ui

import "testing"

func newTestEditor() *Editor {
	e := NewEditor(nil)
	e.Resize(80)
	return &e
}

func assertEditor(t *testing.T, e *Editor, text string, cursor int) {
	t.Helper()
	if string(e.Content()) != text {
		t.Errorf("expected text %q, got %q", text, string(e.Content()))
	}
	if e.cursor != cursor {
		t.Errorf("expected cursor %d, got %d", cursor, e.cursor)
	}
}

func TestEditorEditing(t *testing.T) {
	e := newTestEditor()
	for _, r := range "hello world" {
		e.PutRune(r)
	}
	assertEditor(t, e, "hello world", 11)
	e.LeftWord()
	assertEditor(t, e, "hello world", 6)
	e.RemCluster()
	assertEditor(t, e, "helloworld", 5)
	e.PutRune(' ')
	e.End()
	e.RemWord()
	assertEditor(t, e, "hello ", 6)
	e.Home()
	e.RemClusterForward()
	assertEditor(t, e, "ello ", 0)
}

func TestEditorHistory(t *testing.T) {
	e := newTestEditor()
	e.Set("first")
	e.Flush()
	e.Set("second")
	e.Flush()
	e.Set("draft")

	e.Up()
	assertEditor(t, e, "second", 6)
	e.Up()
	assertEditor(t, e, "first", 5)
	e.Up()
	assertEditor(t, e, "first", 5)
	e.Down()
	e.Down()
	assertEditor(t, e, "draft", 5)
}
