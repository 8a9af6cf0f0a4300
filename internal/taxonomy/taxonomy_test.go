package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalSynonymsFirst(t *testing.T) {
	c := NewCanonicalizer(Default())

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Leche líquida entera 1L", "leche", true},
		{"leche liquida deslactosada", "leche", true},
		{"Atún en lata Van Camps", "atun", true},
		{"Café molido Águila Roja", "cafe", true},
		{"Azúcar morena 500g", "azucar", true},
		{"Huevos AA x 30", "huevo", true},
		{"Arroz Diana premium", "arroz", true},
		{"Pan de molde Bimbo", "pan", true},
		{"Aceite vegetal Gourmet", "aceite", true},
		{"Destornillador Phillips", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := c.Canonical(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Canonical(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonicalWordBoundaries(t *testing.T) {
	c := NewCanonicalizer(Default())

	// "panela" contains "pan" but is not a match at word boundaries.
	if got, ok := c.Canonical("Panela pulverizada"); ok {
		t.Errorf("Canonical(panela) = %q, want no match", got)
	}
	if _, ok := c.Canonical("Pan artesanal"); !ok {
		t.Error("Canonical(pan artesanal) should match pan")
	}
}

func TestCanonicalAccentInsensitive(t *testing.T) {
	c := NewCanonicalizer(Default())

	// Accented input against unaccented vocabulary and back.
	tests := []struct {
		text string
		want string
	}{
		{"Atún fresco del pacífico", "atun"},
		{"CAFÉ tostado  premium", "cafe"},
		{"jabón de tocador", "jabon"},
	}
	for _, tt := range tests {
		got, ok := c.Canonical(tt.text)
		if !ok || got != tt.want {
			t.Errorf("Canonical(%q) = (%q, %v), want (%q, true)", tt.text, got, ok, tt.want)
		}
	}

	if !Default().Contains("Atún") {
		t.Error("Contains must compare normalized forms")
	}
}

func TestIsExcluded(t *testing.T) {
	c := NewCanonicalizer(Default())

	tests := []struct {
		text string
		want bool
	}{
		{"Tarjeta regalo de $50", true},
		{"Gift Card Amazon $100", true},
		{"Servicio de instalación", true},
		{"Funda para celular", true},
		{"garantia extendida 12 meses", true}, // unaccented input, accented keyword
		{"GARANTÍA de fábrica", true},
		{"Leche entera 1L", false},
	}
	for _, tt := range tests {
		if got := c.IsExcluded(tt.text); got != tt.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLoadDefaultsAndFile(t *testing.T) {
	tax, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if !tax.Contains("leche") {
		t.Error("default taxonomy missing leche")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	data := `categories:
  - cerveza
  - vino
synonyms:
  - match: vino tinto
    category: vino
exclude:
  - six pack vacío
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tax, err = Load(path)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	if !tax.Contains("cerveza") || tax.Contains("leche") {
		t.Errorf("loaded taxonomy = %+v", tax.Categories)
	}

	c := NewCanonicalizer(tax)
	if got, ok := c.Canonical("Vino tinto reserva"); !ok || got != "vino" {
		t.Errorf("Canonical(vino tinto) = (%q, %v)", got, ok)
	}
}

func TestLoadBrokenFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("categories: {not a list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a broken taxonomy file")
	}

	path = filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("synonyms: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a taxonomy with no categories")
	}
}
