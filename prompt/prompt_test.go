package prompt

import (
	"strings"
	"testing"

	"jiratrans/language"
)

func TestForcedDirection(t *testing.T) {
	tests := []struct {
		target string
		want   Direction
		ok     bool
	}{
		{"English", KoToEn, true},
		{"en", KoToEn, true},
		{"en-US", KoToEn, true},
		{"Korean", EnToKo, true},
		{"ko", EnToKo, true},
		{"ko-KR", EnToKo, true},
		{"", 0, false},
		{"japanese", 0, false},
		{"fr", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, ok := ForcedDirection(tt.target)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ForcedDirection(%q) = (%v, %v), want (%v, %v)",
					tt.target, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		detected language.Lang
		target   string
		want     Direction
	}{
		{"detected korean", language.Korean, "", KoToEn},
		{"detected english", language.English, "", EnToKo},
		{"unknown falls back", language.Unknown, "", EnToKo},
		{"override beats detection", language.English, "english", KoToEn},
		{"korean override", language.Korean, "ko", EnToKo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.detected, tt.target); got != tt.want {
				t.Errorf("Resolve(%v, %q) = %v, want %v", tt.detected, tt.target, got, tt.want)
			}
		})
	}
}

func TestSystem(t *testing.T) {
	t.Run("batch ko to en carries line-count rule", func(t *testing.T) {
		msg := System(KoToEn, "", true)
		if !strings.Contains(msg, "Korean to English") {
			t.Error("direction missing")
		}
		if !strings.Contains(msg, "exact same number of lines") {
			t.Error("line-count rule missing in batch mode")
		}
		if !strings.Contains(msg, "Title rule") || !strings.Contains(msg, "Observation rule") {
			t.Error("style rules missing")
		}
	})

	t.Run("single mode has no line-count rule", func(t *testing.T) {
		msg := System(EnToKo, "", false)
		if !strings.Contains(msg, "English to Korean") {
			t.Error("direction missing")
		}
		if strings.Contains(msg, "exact same number of lines") {
			t.Error("line-count rule must be batch-only")
		}
	})

	t.Run("glossary instruction appended with note rule", func(t *testing.T) {
		msg := System(KoToEn, "저장 | Save", true)
		if !strings.Contains(msg, "저장 | Save") {
			t.Error("glossary instruction missing")
		}
		if !strings.Contains(msg, "GLOSSARY NOTE RULE") {
			t.Error("note rule missing")
		}
	})

	t.Run("empty glossary omits note rule", func(t *testing.T) {
		if strings.Contains(System(KoToEn, "", true), "GLOSSARY NOTE RULE") {
			t.Error("note rule must only appear with a glossary")
		}
	})
}
