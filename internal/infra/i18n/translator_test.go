//go:build !integration

package i18n

import (
	"testing"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: hello\nwelcome_user: hello %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "hello" {
			t.Errorf("wanted 'hello', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ali"); got != "hello Ali" {
			t.Errorf("wanted 'hello Ali', got '%s'", got)
		}
	})
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	en, err := NewTranslator(LocalesFS, "")
	if err != nil {
		t.Fatalf("load en: %v", err)
	}
	if en.Lang() != DefaultLang {
		t.Errorf("lang = %q", en.Lang())
	}
	fa, err := NewTranslator(LocalesFS, "fa")
	if err != nil {
		t.Fatalf("load fa: %v", err)
	}
	for key := range en.messages {
		if _, ok := fa.messages[key]; !ok {
			t.Errorf("fa is missing %q", key)
		}
	}
}

func TestNewTranslator_UnknownLang(t *testing.T) {
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Fatal("expected error for missing locale")
	}
}
