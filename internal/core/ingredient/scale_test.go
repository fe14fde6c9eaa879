package ingredient

import "testing"

func TestScale(t *testing.T) {
	tests := []struct {
		q, base, target, want float64
	}{
		{250, 2, 4, 500},
		{250, 2, 2, 250},
		{1, 3, 2, 0.7},
		{0.333, 2, 4, 0.7},
		{100, 4, 2, 50},
		{100, 0, 4, 200},
	}
	for _, tt := range tests {
		if got := Scale(tt.q, tt.base, tt.target); got != tt.want {
			t.Errorf("Scale(%v, %v, %v) = %v, want %v", tt.q, tt.base, tt.target, got, tt.want)
		}
	}
}

func TestScaleDoublingMatchesRoundedDouble(t *testing.T) {
	for _, q := range []float64{0.25, 0.333, 1, 1.5, 12.34, 250} {
		if got, want := Scale(q, 2, 4), Round1(q*2); got != want {
			t.Errorf("Scale(%v, 2, 4) = %v, want %v", q, got, want)
		}
		if Scale(q, 2, 4) != Scale(q, 2, 4) {
			t.Errorf("Scale(%v) not deterministic", q)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		q    float64
		unit string
		want string
	}{
		{2, "", "2"},
		{2.0, "g", "2 g"},
		{1.5, "cda", "1.5 cda"},
		{0.666, "u", "0.7 u"},
		{499.96, "ml", "500 ml"},
	}
	for _, tt := range tests {
		if got := Format(tt.q, tt.unit); got != tt.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tt.q, tt.unit, got, tt.want)
		}
	}
}

func TestScaleServings(t *testing.T) {
	s, ok := ScaleServings(Parse("250 gramo(s) Muslos de pollo"), 2)
	if !ok {
		t.Fatal("expected quantities")
	}
	if s.Qty2 != 250 || s.Qty4 != 500 || s.Qty2Text != "250 g" || s.Qty4Text != "500 g" {
		t.Fatalf("scaled = %+v", s)
	}

	s, ok = ScaleServings(Parse("300 gramos Arroz"), 4)
	if !ok || s.Qty2 != 150 || s.Qty4Text != "300 g" {
		t.Fatalf("scaled from 4 = %+v", s)
	}

	if _, ok := ScaleServings(Parse("Sal"), 2); ok {
		t.Fatal("line without quantity should not scale")
	}
}
