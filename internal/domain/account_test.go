package domain

import "testing"

func TestMethodLabels(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"bank", BankTransferLabel(" Nubank "), "Bank Transfer: Nubank"},
		{"paypal", PayPalLabel("a@b.com"), "PayPal: a@b.com"},
		{"crypto", CryptoLabel("btc", "bc1qxyz"), "BTC: bc1qxyz"},
		{"crypto_upper_in", CryptoLabel("ETH", "0xabc"), "ETH: 0xabc"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestValidCryptoCurrency(t *testing.T) {
	for _, code := range []string{"btc", "ETH", " usdt "} {
		if !ValidCryptoCurrency(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}
	for _, code := range []string{"", "doge", "btc2"} {
		if ValidCryptoCurrency(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(100); got != "$100.00" {
		t.Errorf("got %q", got)
	}
	if got := FormatMoney(0); got != "$0.00" {
		t.Errorf("got %q", got)
	}
}

func TestErrorCodes(t *testing.T) {
	if ErrInsufficientFunds.Code() != "INSUFFICIENT_FUNDS" {
		t.Errorf("unexpected code %q", ErrInsufficientFunds.Code())
	}
	if ErrStoreUnavailable.Code() != "STORE_UNAVAILABLE" {
		t.Errorf("unexpected code %q", ErrStoreUnavailable.Code())
	}
}
