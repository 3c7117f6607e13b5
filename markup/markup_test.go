package markup

import (
	"strings"
	"testing"
)

func TestExtractRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "plain image",
			text: "before !screen.png! after",
			want: 1,
		},
		{
			name: "image with options",
			text: "!screen.png|width=300,height=200! and !other.gif|thumbnail!",
			want: 2,
		},
		{
			name: "attachment reference",
			text: "see [^report.pdf] for details",
			want: 1,
		},
		{
			name: "mixed media",
			text: "!a.png! text [^b.zip] more !c.jpg|alt=c!",
			want: 3,
		},
		{
			name: "no media",
			text: "just ordinary text",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attachments, replaced := Extract(tt.text)
			if len(attachments) != tt.want {
				t.Fatalf("Extract() found %d attachments, want %d", len(attachments), tt.want)
			}
			if tt.want > 0 && !ContainsPlaceholder(replaced) {
				t.Errorf("Extract() output carries no placeholder: %q", replaced)
			}
			if got := Restore(replaced, attachments); got != tt.text {
				t.Errorf("Restore() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestExtractPlaceholderIndexing(t *testing.T) {
	attachments, replaced := Extract("!first.png! [^doc.pdf] !second.png!")
	if len(attachments) != 3 {
		t.Fatalf("got %d attachments, want 3", len(attachments))
	}
	// Images are numbered first in match order, attachments after.
	if attachments[0] != "!first.png!" || attachments[1] != "!second.png!" {
		t.Errorf("image ordering wrong: %v", attachments)
	}
	if attachments[2] != "[^doc.pdf]" {
		t.Errorf("attachment not last: %v", attachments)
	}
	if !strings.Contains(replaced, "__IMAGE_PLACEHOLDER_0__") ||
		!strings.Contains(replaced, "__IMAGE_PLACEHOLDER_1__") ||
		!strings.Contains(replaced, "__ATTACHMENT_PLACEHOLDER_2__") {
		t.Errorf("unexpected placeholder layout: %q", replaced)
	}
}

func TestMatchBulletPrefix(t *testing.T) {
	tests := []struct {
		line   string
		prefix string
		ok     bool
	}{
		{"- item", "- ", true},
		{"* item", "* ", true},
		{"** nested", "** ", true},
		{"# numbered", "# ", true},
		{"1. first", "1. ", true},
		{"2) second", "2) ", true},
		{"  - indented", "  - ", true},
		{"plain text", "", false},
		{"-no space", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			prefix, ok := MatchBulletPrefix(tt.line)
			if ok != tt.ok || prefix != tt.prefix {
				t.Errorf("MatchBulletPrefix(%q) = (%q, %v), want (%q, %v)",
					tt.line, prefix, ok, tt.prefix, tt.ok)
			}
		})
	}
}

func TestStripBulletPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"- item", "item"},
		{"** nested item", "nested item"},
		{"3. third", "third"},
		{"  * spaced", "spaced"},
		{"no bullet", "no bullet"},
	}

	for _, tt := range tests {
		if got := StripBulletPrefix(tt.in); got != tt.want {
			t.Errorf("StripBulletPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitBracketPrefix(t *testing.T) {
	tests := []struct {
		in     string
		prefix string
		rest   string
	}{
		{"[Test] broken editor", "[Test] ", "broken editor"},
		{"[Test] [System Menu] broken editor", "[Test] [System Menu] ", "broken editor"},
		{"no brackets here", "", "no brackets here"},
		{"", "", ""},
		{"[only brackets]", "[only brackets]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			prefix, rest := SplitBracketPrefix(tt.in)
			if prefix != tt.prefix || rest != tt.rest {
				t.Errorf("SplitBracketPrefix(%q) = (%q, %q), want (%q, %q)",
					tt.in, prefix, rest, tt.prefix, tt.rest)
			}
		})
	}
}

func TestColorHelpers(t *testing.T) {
	wrapped := ColorizeTranslated("hello")
	if wrapped != "{color:#4c9aff}hello{color}" {
		t.Fatalf("ColorizeTranslated() = %q", wrapped)
	}
	if !HasColor(wrapped) {
		t.Error("HasColor() = false for colored text")
	}
	if got := StripColor(wrapped); got != "hello" {
		t.Errorf("StripColor() = %q, want %q", got, "hello")
	}
	if HasColor("plain") {
		t.Error("HasColor() = true for plain text")
	}
}

func TestScanFence(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		inFence  bool
		verbatim bool
		next     bool
	}{
		{"open code", "{code:java}", false, true, true},
		{"close code", "{code}", true, true, false},
		{"open noformat", "{noformat}", false, true, true},
		{"inline pair", "{code}x := 1{code}", false, true, false},
		{"body line", "int x = 1;", true, true, true},
		{"plain line", "hello world", false, false, false},
		{"blank inside", "", true, true, true},
		{"blank outside", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbatim, next := ScanFence(tt.line, tt.inFence)
			if verbatim != tt.verbatim || next != tt.next {
				t.Errorf("ScanFence(%q, %v) = (%v, %v), want (%v, %v)",
					tt.line, tt.inFence, verbatim, next, tt.verbatim, tt.next)
			}
		})
	}
}

func TestIsMediaLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"!screenshot.png!", true},
		{"!screenshot.png|width=300!", true},
		{"[^log.txt]", true},
		{"- !bullet-image.png!", true},
		{"__IMAGE_PLACEHOLDER_0__", true},
		{"width=300,height=200!", true},
		{"normal text", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := IsMediaLine(tt.line); got != tt.want {
				t.Errorf("IsMediaLine(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestIsTableRow(t *testing.T) {
	tests := []struct {
		line   string
		row    bool
		header bool
	}{
		{"|a|b|", true, false},
		{"||h1||h2||", true, true},
		{"|", false, false},
		{"not a row", false, false},
		{"|unclosed", false, false},
	}

	for _, tt := range tests {
		if got := IsTableRow(tt.line); got != tt.row {
			t.Errorf("IsTableRow(%q) = %v, want %v", tt.line, got, tt.row)
		}
		if tt.row {
			if got := IsTableHeaderRow(tt.line); got != tt.header {
				t.Errorf("IsTableHeaderRow(%q) = %v, want %v", tt.line, got, tt.header)
			}
		}
	}
}

func TestClassifierFenceImmunity(t *testing.T) {
	c := &Classifier{IsHeader: func(line string) bool {
		return strings.HasPrefix(line, "h3.")
	}}

	lines := []string{
		"before",
		"{code:sql}",
		"SELECT * FROM t;",
		"h3. not a header in here",
		"{code}",
		"h3. Real Header",
	}
	want := []LineKind{KindPlain, KindFence, KindFenceBody, KindFenceBody, KindFence, KindHeader}

	for i, line := range lines {
		if got := c.Classify(line); got != want[i] {
			t.Errorf("line %d (%q): kind = %v, want %v", i, line, got, want[i])
		}
	}
}
