package language

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Lang
	}{
		{
			name: "korean sentence",
			text: "버튼을 클릭하면 오류가 발생합니다.",
			want: Korean,
		},
		{
			name: "english sentence",
			text: "The editor crashes when the file is saved.",
			want: English,
		},
		{
			name: "english proper nouns with korean particle",
			text: "Records에서 Tab으로 이동",
			want: Korean,
		},
		{
			name: "korean clipped report ending",
			text: "에디터 진입 시 크래시 발생함",
			want: Korean,
		},
		{
			name: "mostly english words but korean ending",
			text: "Settings > Advanced > Network 메뉴 진입 시 팝업이 노출됨",
			want: Korean,
		},
		{
			name: "bare english label",
			text: "System Menu Editor",
			want: English,
		},
		{
			name: "empty",
			text: "",
			want: Unknown,
		},
		{
			name: "markup only",
			text: "!screen.png! [^log.txt] {color:#4c9aff}{color}",
			want: Unknown,
		},
		{
			name: "numbers and punctuation only",
			text: "1234 !!! ???",
			want: Unknown,
		},
		{
			name: "single hangul word",
			text: "오류",
			want: Korean,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractDetectableText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips image", "보기 !screen.png! 끝", "보기끝"},
		{"strips placeholder", "a __IMAGE_PLACEHOLDER_0__ b", "ab"},
		{"strips color span", "{color:#4c9aff}done{color}", "done"},
		{"strips inline code", "run `make all` now", "runnow"},
		{"strips punctuation", "hello, world!", "helloworld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDetectableText(tt.in); got != tt.want {
				t.Errorf("ExtractDetectableText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsBilingualSummary(t *testing.T) {
	splitBracket := func(s string) (string, string) {
		if len(s) > 7 && s[:7] == "[Test] " {
			return "[Test] ", s[7:]
		}
		return "", s
	}

	tests := []struct {
		name    string
		summary string
		want    bool
	}{
		{
			name:    "korean slash english",
			summary: "편집기 오류 발생 / Editor error occurs",
			want:    true,
		},
		{
			name:    "bracket prefix excluded",
			summary: "[Test] 편집기 오류 발생 / Editor error occurs",
			want:    true,
		},
		{
			name:    "no separator",
			summary: "편집기 오류 발생",
			want:    false,
		},
		{
			name:    "same language both sides",
			summary: "Editor crash / Editor error",
			want:    false,
		},
		{
			name:    "unknown half",
			summary: "1234 / Editor error occurs in the menu",
			want:    false,
		},
		{
			name:    "empty",
			summary: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBilingualSummary(tt.summary, splitBracket); got != tt.want {
				t.Errorf("IsBilingualSummary(%q) = %v, want %v", tt.summary, got, tt.want)
			}
		})
	}
}

func TestIsDescriptionTranslated(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{
			name:  "real translated line",
			value: "원본 줄\n{color:#4c9aff}Translated line{color}",
			want:  true,
		},
		{
			name:  "empty span only",
			value: "원본 줄\n{color:#4c9aff}{color}",
			want:  false,
		},
		{
			name:  "table delimiter span only",
			value: "|{color:#4c9aff}|{color}|",
			want:  false,
		},
		{
			name:  "delimiter span then real span",
			value: "{color:#4c9aff}|{color}\n{color:#4c9aff}Real text{color}",
			want:  true,
		},
		{
			name:  "no span",
			value: "그냥 설명 텍스트",
			want:  false,
		},
		{
			name:  "empty",
			value: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDescriptionTranslated(tt.value); got != tt.want {
				t.Errorf("IsDescriptionTranslated(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestIsStepsBilingual(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{
			name:  "korean then english block",
			value: "1. 메뉴를 엽니다\n2. 저장을 누릅니다\n\n1. Open the menu\n2. Press save",
			want:  true,
		},
		{
			name:  "single block",
			value: "1. 메뉴를 엽니다",
			want:  false,
		},
		{
			name:  "two korean blocks",
			value: "메뉴를 엽니다\n\n저장을 누릅니다",
			want:  false,
		},
		{
			name:  "empty",
			value: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStepsBilingual(tt.value); got != tt.want {
				t.Errorf("IsStepsBilingual(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
