package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("jo_hn*doe", MarkdownV1)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if got != `jo\_hn\*doe` {
		t.Fatalf("escaped = %q", got)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("a.b!c", MarkdownV2)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if got != `a\.b\!c` {
		t.Fatalf("escaped = %q", got)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestEscapeNamePlain(t *testing.T) {
	if got := EscapeName("there"); got != "there" {
		t.Fatalf("escaped = %q", got)
	}
}
