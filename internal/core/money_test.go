package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "plain credit", in: "12.34", want: 1234},
		{name: "comma separator", in: "12,34", want: 1234},
		{name: "debit", in: "-3.50", want: -350},
		{name: "debit comma", in: "-3,5", want: -350},
		{name: "explicit plus", in: "+10", want: 1000},
		{name: "integer", in: "7", want: 700},
		{name: "single fractional digit", in: "1.2", want: 120},
		{name: "rounds down", in: "12.344", want: 1234},
		{name: "rounds up", in: "12.346", want: 1235},
		{name: "zero", in: "0", want: 0},
		{name: "leading whitespace", in: "  4.20 ", want: 420},
		{name: "no integer part", in: ".75", want: 75},
		{name: "empty", in: "", wantErr: true},
		{name: "bare sign", in: "-", wantErr: true},
		{name: "letters", in: "abc", wantErr: true},
		{name: "two separators", in: "1.2.3", wantErr: true},
		{name: "embedded sign", in: "1-2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToCents(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 1234, want: "12.34"},
		{cents: -350, want: "-3.50"},
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: -5, want: "-0.05"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyAbs(t *testing.T) {
	if got := (Money{Cents: -350}).Abs(); got.Cents != 350 {
		t.Errorf("Abs(-350) = %d, want 350", got.Cents)
	}
	if got := (Money{Cents: 350}).Abs(); got.Cents != 350 {
		t.Errorf("Abs(350) = %d, want 350", got.Cents)
	}
}
