package handler

import (
	"errors"
	"testing"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

func TestParseDocumentsJSON_ObjectKeepsKeyOrder(t *testing.T) {
	raw := `{"dokumenPajak":"https://x/3","buktiKemitraanBudaya":"https://x/1","DOKUMEN_LEGAL":{"url":" https://x/2 ","filename":"legal.pdf","required":true}}`

	entries, err := parseDocumentsJSON([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"dokumenPajak", "buktiKemitraanBudaya", "DOKUMEN_LEGAL"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), entries)
	}
	for i, key := range want {
		if entries[i].Key != key {
			t.Fatalf("entry %d: expected key %s, got %s", i, key, entries[i].Key)
		}
		if entries[i].Listed {
			t.Fatalf("keyed entries must not be marked listed")
		}
	}
	legal := entries[2]
	if legal.URL != "https://x/2" || legal.Filename != "legal.pdf" || !legal.Required {
		t.Fatalf("unexpected object value: %+v", legal)
	}
}

func TestParseDocumentsJSON_ObjectSkipsEmptyValues(t *testing.T) {
	entries, err := parseDocumentsJSON([]byte(`{"dokumenKYC":"  ","dokumenLegal":null,"dokumenPajak":7,"dokumenBilling":"https://x/b"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "dokumenBilling" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseDocumentsJSON_List(t *testing.T) {
	raw := `[{"type":"DOKUMEN_KYC","url":"https://x/kyc"},{"url":"https://x/none"},"junk",{"type":"DOKUMEN_PAJAK","url":"https://x/tax","required":true}]`

	entries, err := parseDocumentsJSON([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Key != string(domain.DocDokumenKYC) || !entries[0].Listed {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Key != string(domain.DocDokumenPajak) || !entries[1].Required {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestParseDocumentsJSON_Absent(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		entries, err := parseDocumentsJSON([]byte(raw))
		if err != nil || entries != nil {
			t.Fatalf("%q: expected no entries, got %+v, %v", raw, entries, err)
		}
	}
}

func TestParseDocumentsJSON_Invalid(t *testing.T) {
	for _, raw := range []string{`"string"`, `42`, `[1,`, `{"a":`} {
		_, err := parseDocumentsJSON([]byte(raw))
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", " 0812 ", "0813"); got != "0812" {
		t.Fatalf("expected 0812, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestObjectOrNil(t *testing.T) {
	if m := objectOrNil([]byte(`{"companyName":"Batik"}`)); m["companyName"] != "Batik" {
		t.Fatalf("unexpected map: %+v", m)
	}
	for _, raw := range []string{`[]`, `"x"`, `not json`, ``} {
		if m := objectOrNil([]byte(raw)); m != nil {
			t.Fatalf("%q: expected nil, got %+v", raw, m)
		}
	}
}
