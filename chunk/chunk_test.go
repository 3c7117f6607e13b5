package chunk

import (
	"strings"
	"testing"
)

func TestPlanSummary(t *testing.T) {
	t.Run("bracket prefix stripped", func(t *testing.T) {
		job := Plan("summary", "[Test] [System Menu] 편집기 오류")
		if job == nil {
			t.Fatal("expected a job")
		}
		if len(job.Chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(job.Chunks))
		}
		c := job.Chunks[0]
		if c.ID != "summary" {
			t.Errorf("id = %q", c.ID)
		}
		if c.OriginalText != "편집기 오류" {
			t.Errorf("bracket prefix not stripped: %q", c.OriginalText)
		}
		if job.OriginalValue != "[Test] [System Menu] 편집기 오류" {
			t.Errorf("original value lost: %q", job.OriginalValue)
		}
	})

	t.Run("bracket-only summary yields nothing", func(t *testing.T) {
		if job := Plan("summary", "[Test] [Menu]"); job != nil {
			t.Errorf("expected nil job, got %+v", job)
		}
	})

	t.Run("empty value", func(t *testing.T) {
		if job := Plan("summary", ""); job != nil {
			t.Errorf("expected nil job, got %+v", job)
		}
	})
}

func TestPlanDescriptionSections(t *testing.T) {
	value := "Observed:\n메뉴가 열리지 않음\n\nExpected Result:\n메뉴가 정상적으로 열림\n\n*[QA 환경 / QA Environment]*\nPC / Windows 11"
	job := Plan("description", value)
	if job == nil {
		t.Fatal("expected a job")
	}
	if len(job.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(job.Chunks), job.Chunks)
	}

	if job.Chunks[0].ID != "description__section_0" || job.Chunks[1].ID != "description__section_1" {
		t.Errorf("section ids wrong: %q, %q", job.Chunks[0].ID, job.Chunks[1].ID)
	}
	if job.Chunks[0].Header != "Observed:" {
		t.Errorf("header = %q", job.Chunks[0].Header)
	}
	if job.Chunks[0].Kind != Translatable || job.Chunks[1].Kind != Translatable {
		t.Error("regular sections must be translatable")
	}
	if job.Chunks[2].Kind != PassThrough {
		t.Errorf("QA environment section must be pass-through, got %v", job.Chunks[2].Kind)
	}
}

func TestPlanDescriptionWithoutSections(t *testing.T) {
	job := Plan("description", "섹션 구조가 없는 설명입니다.")
	if job == nil {
		t.Fatal("expected a job")
	}
	if len(job.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(job.Chunks))
	}
	if job.Chunks[0].ID != "description__full" {
		t.Errorf("id = %q, want description__full", job.Chunks[0].ID)
	}
}

func TestPlanOtherField(t *testing.T) {
	job := Plan("customfield_10399", "1. 메뉴 진입\n2. 저장 클릭")
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.Chunks[0].ID != "customfield_10399" {
		t.Errorf("id = %q", job.Chunks[0].ID)
	}
}

func TestPlanExtractsMedia(t *testing.T) {
	job := Plan("description", "화면을 확인 !screen.png!")
	if job == nil {
		t.Fatal("expected a job")
	}
	c := job.Chunks[0]
	if len(c.Attachments) != 1 || c.Attachments[0] != "!screen.png!" {
		t.Errorf("attachments = %v", c.Attachments)
	}
	if strings.Contains(c.CleanText, "!screen.png!") {
		t.Errorf("media not extracted from clean text: %q", c.CleanText)
	}
	if !strings.Contains(c.OriginalText, "!screen.png!") {
		t.Errorf("original text altered: %q", c.OriginalText)
	}
}

func TestFieldHint(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"summary", "summary"},
		{"description__section_0", "description"},
		{"description__full", "description"},
		{"customfield_10399", "steps"},
		{"labels", "other"},
	}

	for _, tt := range tests {
		if got := FieldHint(tt.id); got != tt.want {
			t.Errorf("FieldHint(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
