package money

import "testing"

func TestDeposit(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"500.00", "150.00"},
		{"500", "150.00"},
		{"199.99", "60.00"},  // 59.997 rounds half-up to cents
		{"0.01", "0.00"},     // 0.003 rounds down
		{"333.35", "100.01"}, // 100.005 rounds half-up
	}
	for _, c := range cases {
		got, err := Deposit(c.price)
		if err != nil {
			t.Fatalf("Deposit(%s) error: %v", c.price, err)
		}
		if got != c.want {
			t.Fatalf("Deposit(%s) = %s, want %s", c.price, got, c.want)
		}
	}
}

func TestDepositRejectsBadInput(t *testing.T) {
	if _, err := Deposit("abc"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := Deposit("-10.00"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBalanceDue(t *testing.T) {
	due, err := BalanceDue("500.00", "150.00")
	if err != nil {
		t.Fatalf("BalanceDue error: %v", err)
	}
	if due != "350.00" {
		t.Fatalf("BalanceDue = %s, want 350.00", due)
	}

	if _, err := BalanceDue("100.00", "150.00"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount for deposit above price, got %v", err)
	}
}

func TestEqual(t *testing.T) {
	if !Equal("150", "150.00") {
		t.Fatalf("expected 150 == 150.00")
	}
	if Equal("150.00", "150.01") {
		t.Fatalf("expected 150.00 != 150.01")
	}
	if Equal("x", "150.00") {
		t.Fatalf("expected unparseable amount to compare false")
	}
}
