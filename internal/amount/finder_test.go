package amount

import "testing"

func TestFind(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{
			name: "dollar led amount wins over bad context digits",
			text: "CUIT 20-12345678-9\nComprobante de transferencia\nMonto: $ 15.000,50\nReferencia 000111222",
			want: 15000.50,
			ok:   true,
		},
		{
			name: "grouped numeric fallback near keyword",
			text: "Transferencia exitosa\n12.500\nGracias por tu pago",
			want: 12500,
			ok:   true,
		},
		{
			name: "bare four digit year rejected",
			text: "Fecha 2024\nComprobante\nTotal 1500",
			want: 1500,
			ok:   true,
		},
		{
			name: "large values discard small ones",
			text: "$ 50\nMonto $ 25.000",
			want: 25000,
			ok:   true,
		},
		{
			name: "nothing in range",
			text: "CUIT 20123456789\nreferencia 998877",
			want: 0,
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Find(tc.text)
			if ok != tc.ok {
				t.Fatalf("Find() ok = %v, want %v (got %v)", ok, tc.ok, got)
			}
			if ok && got != tc.want {
				t.Fatalf("Find() = %v, want %v", got, tc.want)
			}
		})
	}
}
