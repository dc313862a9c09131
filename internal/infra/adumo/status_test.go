package adumo

import (
	"strconv"
	"testing"

	"ascendancy-backend/internal/domain/billing"
)

func TestMapResult(t *testing.T) {
	tests := []struct {
		status string
		code   *int
		want   billing.PaymentStatus
	}{
		{"AUTHORISED", nil, billing.StatusCompleted},
		{"authorized", intPtr(-1), billing.StatusCompleted},
		{"Settled", nil, billing.StatusCompleted},
		{"SUCCESSFUL", intPtr(1), billing.StatusCompleted},
		{"DECLINED", intPtr(0), billing.StatusFailed},
		{"cancelled", nil, billing.StatusFailed},
		{"VOIDED", nil, billing.StatusFailed},
		{"REJECTED", nil, billing.StatusFailed},
		{"PENDING", intPtr(0), billing.StatusPending},
		{"in_progress", nil, billing.StatusPending},
		{"", intPtr(0), billing.StatusCompleted},
		{"", intPtr(-1), billing.StatusFailed},
		{"", intPtr(1), billing.StatusPending},
		{"SOMETHING_NEW", intPtr(0), billing.StatusCompleted},
		{"", nil, billing.StatusPending},
	}
	for _, tt := range tests {
		if got := MapResult(tt.status, tt.code); got != tt.want {
			code := "nil"
			if tt.code != nil {
				code = strconv.Itoa(*tt.code)
			}
			t.Errorf("MapResult(%q, %s) = %q, want %q", tt.status, code, got, tt.want)
		}
	}
}

func TestMoneyConversions(t *testing.T) {
	tests := []struct {
		major string
		minor int64
	}{
		{"3000.00", 300000},
		{"3000", 300000},
		{"750.5", 75050},
		{"0.01", 1},
		{"19.995", 2000},
		{"0.004", 0},
	}
	for _, tt := range tests {
		got, err := ParseMajorUnits(tt.major)
		if err != nil {
			t.Fatalf("ParseMajorUnits(%q): %v", tt.major, err)
		}
		if got != tt.minor {
			t.Errorf("ParseMajorUnits(%q) = %d, want %d", tt.major, got, tt.minor)
		}
	}

	if got := FormatMajorUnits(1200000); got != "12000.00" {
		t.Errorf("FormatMajorUnits = %q", got)
	}
	if got := FormatMajorUnits(75050); got != "750.50" {
		t.Errorf("FormatMajorUnits = %q", got)
	}
	if _, err := ParseMajorUnits("R100"); err == nil {
		t.Error("expected parse error")
	}
}
