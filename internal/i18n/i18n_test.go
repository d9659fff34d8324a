package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
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

	got := T(ctx, "LabelCorrect")
	if got != "Correct" {
		t.Errorf("T(LabelCorrect) = %q, want 'Correct'", got)
	}

	got = T(ctx, "SurpriseNeutralEffect")
	if got != "Neutral Effect" {
		t.Errorf("T(SurpriseNeutralEffect) = %q, want 'Neutral Effect'", got)
	}
}

func TestTranslateTurkish(t *testing.T) {
	ctx := initLang(t, "tr")

	got := T(ctx, "LabelCorrect")
	if got != "Doğru" {
		t.Errorf("T(LabelCorrect) = %q, want 'Doğru'", got)
	}

	got = T(ctx, "LabelPartiallyCorrect")
	if got != "Kısmen Doğru" {
		t.Errorf("T(LabelPartiallyCorrect) = %q, want 'Kısmen Doğru'", got)
	}

	got = T(ctx, "ToneUndetermined")
	if got != "belirsiz" {
		t.Errorf("T(ToneUndetermined) = %q, want 'belirsiz'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "tr")

	got := Td(ctx, "ExplanationHighConfidence", map[string]any{"Tone": "pozitif"})
	if got != "Yüksek güven: Net pozitif duygusal durum" {
		t.Errorf("Td(ExplanationHighConfidence) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsAvailable", 1)
	if got1 != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q, want '1 question available.'", got1)
	}

	got5 := Tp(ctx, "QuestionsAvailable", 5)
	if got5 != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q, want '5 questions available.'", got5)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	initLang(t, "tr")

	var got string
	h := Middleware("tr")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "LabelCorrect")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Correct" {
		t.Errorf("with Accept-Language en got %q, want 'Correct'", got)
	}

	// No header: the configured language applies.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "Doğru" {
		t.Errorf("without Accept-Language got %q, want 'Doğru'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
