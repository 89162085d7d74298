package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if GetCatalog("") != base {
		t.Fatal("expected empty locale to resolve to en-US")
	}
}

func TestGetCatalogMatchesRegionalVariant(t *testing.T) {
	cat := GetCatalog("pt")
	if cat.Locale() != "pt-BR" {
		t.Fatalf("locale = %s, want pt-BR", cat.Locale())
	}
}

func TestBuiltInCatalogsCoverEveryCode(t *testing.T) {
	for _, locale := range []string{"en-US", "pt-BR"} {
		cat := GetCatalog(locale)
		for code := range enUSMessages {
			if got := cat.Format(code, nil); got == code {
				t.Fatalf("%s missing message for %s", locale, code)
			}
		}
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	got := GetCatalog("en-US").Format(CodeIncorrectPayment, map[string]string{
		"Context":  "registration",
		"Expected": "10",
	})
	if got != "The registration payment must be exactly 10." {
		t.Fatalf("format = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
