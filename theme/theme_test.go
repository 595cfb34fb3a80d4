package theme

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name, currency, typ string
		want                Tag
	}{
		{"Bitcoin Wallet", "BTC", "Crypto", Bitcoin},
		{"eth", "eth", "", Ethereum},
		{"Phantom", "SOL", "Crypto", Solana},
		{"Binance", "USDT", "Crypto", Tether},
		// crypto currency wins over a bank name
		{"BCP crypto", "BTC", "Bank", Bitcoin},
		{"Cuenta BCP", "PEN", "Bank", BCP},
		{"cuenta bcp dolares", "USD", "Bank", BCP},
		{"Interbank Sueldo", "PEN", "Bank", Interbank},
		{"Ahorros", "USD", "Bank", USD},
		{"Efectivo", "PEN", "Bank", Cash},
		{"Billetera", "PEN", "Cash", Cash},
		// USD wins over cash
		{"Efectivo dolares", "USD", "Cash", USD},
		{"BBVA", "PEN", "Bank", Generic},
		{"", "", "", Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.currency, func(t *testing.T) {
			if got := Classify(tt.name, tt.currency, tt.typ); got != tt.want {
				t.Errorf("Classify(%q, %q, %q) = %v, want %v", tt.name, tt.currency, tt.typ, got, tt.want)
			}
		})
	}
}

func TestStyleOf(t *testing.T) {
	for tag := Generic; tag <= Cash; tag++ {
		s := StyleOf(tag)
		if s.Color == "" {
			t.Errorf("StyleOf(%v) has no color", tag)
		}
		round := tag == Bitcoin || tag == Ethereum || tag == Solana || tag == Tether
		if s.Round != round {
			t.Errorf("StyleOf(%v).Round = %v, want %v", tag, s.Round, round)
		}
	}
	if got := StyleOf(Tag(99)); got != StyleOf(Generic) {
		t.Errorf("StyleOf(99) = %+v, want the generic style", got)
	}
	if got := StyleOf(BCP).Color; got != "#002B8C" {
		t.Errorf("StyleOf(BCP).Color = %q, want #002B8C", got)
	}
}
