package textproc

import (
	"reflect"
	"testing"
)

func TestCleanDropsNoiseAndDuplicates(t *testing.T) {
	s := NewSegmenter()

	raw := []string{
		"",
		"Leche Entera Alquería 1L",
		"Aceptar cookies",
		"Agregar al carrito",
		"•",
		"Supermercado",
		"Leche Entera Alquería 1L",
		"LECHE ENTERA ALQUERÍA 1L",
		"$4.500",
	}

	got := s.Clean(raw)
	want := []string{"Leche Entera Alquería 1L", "$4.500"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clean() = %v, want %v", got, want)
	}
}

func TestCleanStopsAtRelatedProducts(t *testing.T) {
	s := NewSegmenter()

	raw := []string{
		"Arroz Diana 500g",
		"Descripción",
		"Arroz blanco de grano largo",
		"Productos relacionados",
		"Frijol Diana 500g",
		"Lenteja Diana 500g",
	}

	got := s.Clean(raw)
	want := []string{"Arroz Diana 500g", "Descripción", "Arroz blanco de grano largo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clean() = %v, want %v", got, want)
	}

	for _, line := range got {
		if line == "Frijol Diana 500g" || line == "Lenteja Diana 500g" {
			t.Errorf("line after stop marker leaked into output: %q", line)
		}
	}
}

func TestCleanMergesLabelValuePairs(t *testing.T) {
	s := NewSegmenter()

	t.Run("trailing colon", func(t *testing.T) {
		got := s.Clean([]string{"Referencia:", "7702129012345"})
		want := []string{"Referencia: 7702129012345"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Clean() = %v, want %v", got, want)
		}
	})

	t.Run("bare colon reattaches previous line", func(t *testing.T) {
		got := s.Clean([]string{"Contenido neto", ":", "900 ml"})
		want := []string{"Contenido neto: 900 ml"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Clean() = %v, want %v", got, want)
		}
	})

	t.Run("merged pair deduplicates", func(t *testing.T) {
		got := s.Clean([]string{"Marca:", "Diana", "marca: diana"})
		want := []string{"Marca: Diana"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Clean() = %v, want %v", got, want)
		}
	})
}

func TestCleanIdempotent(t *testing.T) {
	s := NewSegmenter()

	raw := []string{
		"Café Águila Roja 250g",
		"Marca: Águila Roja",
		"Descripción",
		"Café tostado y molido",
		"$12.900",
	}

	once := s.Clean(raw)
	twice := s.Clean(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Clean not idempotent:\n first = %v\nsecond = %v", once, twice)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Leche Líquida  Entera", "leche liquida entera"},
		{"  AZÚCAR ", "azucar"},
		{"", ""},
		{"café\tmolido", "cafe molido"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func BenchmarkClean(b *testing.B) {
	s := NewSegmenter()
	raw := []string{
		"Leche Entera Alquería 1L",
		"Aceptar cookies",
		"Agregar al carrito",
		"Descripción",
		"Leche entera ultrapasteurizada de vaca",
		"Precio: $4.500",
		"Inicio > Lácteos > Leche",
		"Productos relacionados",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Clean(raw)
	}
}
