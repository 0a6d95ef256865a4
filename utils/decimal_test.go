package utils

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"500", "500"},
		{"20,000", "20000"},
		{"INR 20,000", "20000"},
		{"Rs. -20,000", "-20000"},
		{"₹ 1,234.50", "1234.5"},
		{" 0 ", "0"},
	}
	for _, c := range cases {
		got, err := ParseMoney(c.in)
		if err != nil {
			t.Fatalf("ParseMoney(%q): %v", c.in, err)
		}
		if got.String() != c.want {
			t.Fatalf("ParseMoney(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseMoneyInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "₹"} {
		if _, err := ParseMoney(in); err == nil {
			t.Fatalf("ParseMoney(%q): expected error", in)
		}
	}
}
