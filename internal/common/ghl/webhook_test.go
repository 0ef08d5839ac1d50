package ghl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"ContactCreate","contactId":"c-1"}`)
	sig := Sign("whsec", body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{"valid", "whsec", body, sig, true},
		{"valid with prefix", "whsec", body, "sha256=" + sig, true},
		{"tampered body", "whsec", []byte(`{"type":"ContactDelete"}`), sig, false},
		{"wrong secret", "other", body, sig, false},
		{"not hex", "whsec", body, "zz-not-hex", false},
		{"empty signature", "whsec", body, "", false},
		{"no secret configured", "", body, sig, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.secret, tt.body, tt.signature))
		})
	}
}
