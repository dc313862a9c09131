package adumo

import (
	"testing"
	"time"

	"ascendancy-backend/internal/shared/apperr"
)

func validCard() CardDetails {
	return CardDetails{
		Number:      "4111 1111 1111 1111",
		HolderName:  "Thandi Nkosi",
		ExpiryMonth: 12,
		ExpiryYear:  27,
		CVV:         "123",
	}
}

func TestValidLuhn(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"5555555555554444", true},
		{"378282246310005", true},
		{"4111111111111112", false},
		{"", false},
		{"4111a11111111111", false},
	}
	for _, tt := range tests {
		if got := ValidLuhn(tt.number); got != tt.want {
			t.Errorf("ValidLuhn(%q) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestDetectCardNetwork(t *testing.T) {
	tests := []struct {
		number string
		want   CardNetwork
	}{
		{"4111111111111111", NetworkVisa},
		{"5555555555554444", NetworkMastercard},
		{"2223003122003222", NetworkMastercard},
		{"378282246310005", NetworkAmex},
		{"6011111111111117", NetworkDiscover},
		{"3566002020360505", NetworkUnknown},
		{"1", NetworkUnknown},
	}
	for _, tt := range tests {
		if got := DetectCardNetwork(tt.number); got != tt.want {
			t.Errorf("DetectCardNetwork(%q) = %q, want %q", tt.number, got, tt.want)
		}
	}
}

func TestCardDetailsValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*CardDetails)
		field  string
	}{
		{"valid", func(*CardDetails) {}, ""},
		{"missing holder", func(d *CardDetails) { d.HolderName = "  " }, "holderName"},
		{"bad checksum", func(d *CardDetails) { d.Number = "4111111111111112" }, "cardNumber"},
		{"too short", func(d *CardDetails) { d.Number = "4111" }, "cardNumber"},
		{"unsupported network", func(d *CardDetails) { d.Number = "3566002020360505" }, "cardNumber"},
		{"month out of range", func(d *CardDetails) { d.ExpiryMonth = 13 }, "expiryMonth"},
		{"expired last month", func(d *CardDetails) { d.ExpiryMonth = 5; d.ExpiryYear = 2025 }, "expiryYear"},
		{"expires this month", func(d *CardDetails) { d.ExpiryMonth = 6; d.ExpiryYear = 2025 }, ""},
		{"short cvv", func(d *CardDetails) { d.CVV = "12" }, "cvv"},
		{"amex needs four digit cvv", func(d *CardDetails) { d.Number = "378282246310005" }, "cvv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validCard()
			tt.mutate(&d)
			err := d.Validate(now)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ae, ok := apperr.As(err)
			if !ok || ae.Kind != apperr.Invalid {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := ae.Fields[tt.field]; !ok {
				t.Fatalf("fields = %v, want %s", ae.Fields, tt.field)
			}
		})
	}
}
