package plans

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "exact", key: "builder", want: TierBuilder, wantOK: true},
		{name: "mixed case", key: " Innovator ", want: TierInnovator, wantOK: true},
		{name: "unknown", key: "founder", wantOK: false},
		{name: "empty", key: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ok && got.Key != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.key, got.Key, tt.want)
			}
		})
	}
}

func TestCatalogIsConsistent(t *testing.T) {
	all := All()
	if len(all) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(all))
	}
	for i, tier := range all {
		if i > 0 && all[i-1].LumpSum > tier.LumpSum {
			t.Errorf("All() not ordered by price at %s", tier.Key)
		}
		if tier.Deposit >= tier.LumpSum {
			t.Errorf("%s: deposit %d must be below lump sum %d", tier.Key, tier.Deposit, tier.LumpSum)
		}
		if tier.InstallmentTotal() != tier.LumpSum {
			t.Errorf("%s: installments total %d, lump sum %d", tier.Key, tier.InstallmentTotal(), tier.LumpSum)
		}
	}
}
