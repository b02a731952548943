package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "ParseErrorNotFound")
	if got != "No file was uploaded or the file could not be found." {
		t.Errorf("T(ParseErrorNotFound) = %q", got)
	}

	got = T(ctx, "LoginError")
	if got != "Invalid username or password." {
		t.Errorf("T(LoginError) = %q, want 'Invalid username or password.'", got)
	}
}

func TestTranslateVietnamese(t *testing.T) {
	ctx := initLang(t, "vi")

	got := T(ctx, "ParseErrorNotFound")
	if got != "Không tìm thấy file tải lên." {
		t.Errorf("T(ParseErrorNotFound) = %q", got)
	}

	got = T(ctx, "LoginError")
	if got != "Tên đăng nhập hoặc mật khẩu không đúng." {
		t.Errorf("T(LoginError) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "ParsedQuestions", 1)
	if got1 != "Parsed 1 question from the document." {
		t.Errorf("Tp(ParsedQuestions, 1) = %q", got1)
	}

	got12 := Tp(ctx, "ParsedQuestions", 12)
	if got12 != "Parsed 12 questions from the document." {
		t.Errorf("Tp(ParsedQuestions, 12) = %q", got12)
	}
}

func TestVietnamesePluralHasSingleForm(t *testing.T) {
	ctx := initLang(t, "vi")

	got := Tp(ctx, "ParsedQuestions", 1)
	if got != "Đã nhận dạng 1 câu hỏi từ tài liệu." {
		t.Errorf("Tp(ParsedQuestions, 1) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ExamPublished", map[string]any{"Title": "Algebra Midterm"})
	if got != `The exam "Algebra Midterm" is now visible to students.` {
		t.Errorf("Td(ExamPublished) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// A context without a localizer falls back to English.
	got := T(context.Background(), "ParseErrorGeneric")
	if got != "The document could not be processed." {
		t.Errorf("T without localizer = %q", got)
	}
}
