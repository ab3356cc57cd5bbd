package mysql

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes(t *testing.T) {
	s := strings.Repeat("a", 254) + "日本"
	got := truncateRunes(s, maxReasonLen)
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != maxReasonLen {
		t.Fatalf("bad truncation: valid=%v runes=%d", utf8.ValidString(got), utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "日") {
		t.Fatalf("expected the first multibyte rune to survive, got %q", got[len(got)-6:])
	}
	if truncateRunes("short", maxReasonLen) != "short" {
		t.Fatal("short reasons must pass through")
	}
}
