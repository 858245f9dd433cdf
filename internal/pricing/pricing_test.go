package pricing

import "testing"

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name      string
		basePence int64
		quantity  int
		want      int64
	}{
		{name: "single runner pays base price", basePence: 2000, quantity: 1, want: 2000},
		{name: "three runners pay base price", basePence: 2000, quantity: 3, want: 2000},
		{name: "four runners get the discount", basePence: 2000, quantity: 4, want: 1800},
		{name: "six runners get the discount", basePence: 2000, quantity: 6, want: 1800},
		{name: "odd price rounds half up", basePence: 2495, quantity: 4, want: 2246},
		{name: "price below ten pence", basePence: 5, quantity: 4, want: 5},
		{name: "zero price stays zero", basePence: 0, quantity: 4, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitPrice(tt.basePence, tt.quantity)
			if got != tt.want {
				t.Errorf("UnitPrice(%d, %d) = %d, want %d", tt.basePence, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestUnitPriceDeterministic(t *testing.T) {
	// Identical inputs must produce identical prices, every time
	first := UnitPrice(3333, 5)
	for i := 0; i < 100; i++ {
		if got := UnitPrice(3333, 5); got != first {
			t.Fatalf("UnitPrice(3333, 5) = %d on iteration %d, first call gave %d", got, i, first)
		}
	}
}

func TestTotal(t *testing.T) {
	// 4 at 2000 base = 4 x 1800
	if got := Total(2000, 4); got != 7200 {
		t.Errorf("Total(2000, 4) = %d, want 7200", got)
	}
	// 3 at 2000 base = 3 x 2000, no discount
	if got := Total(2000, 3); got != 6000 {
		t.Errorf("Total(2000, 3) = %d, want 6000", got)
	}
}

func TestDiscounted(t *testing.T) {
	if Discounted(3) {
		t.Error("Discounted(3) = true, want false")
	}
	if !Discounted(4) {
		t.Error("Discounted(4) = false, want true")
	}
}
