package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 200}
	tests := []struct {
		in   int32
		want int
	}{
		{0, 50},
		{-3, 50},
		{10, 10},
		{500, 200},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize with empty config = %d, want 1", got)
	}
}

func TestSeqTokenRoundTrip(t *testing.T) {
	token := EncodeSeqToken(42)
	seq, err := DecodeSeqToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if seq != 42 {
		t.Fatalf("seq = %d, want 42", seq)
	}
	if EncodeSeqToken(0) != "" {
		t.Fatal("expected empty token for zero seq")
	}
	if seq, err := DecodeSeqToken(""); err != nil || seq != 0 {
		t.Fatalf("DecodeSeqToken(\"\") = %d, %v", seq, err)
	}
}

func TestDecodeSeqTokenRejectsGarbage(t *testing.T) {
	if _, err := DecodeSeqToken("!!"); err == nil {
		t.Fatal("expected base64 error")
	}
	if _, err := DecodeSeqToken("YWJj"); err == nil {
		t.Fatal("expected number error")
	}
}
