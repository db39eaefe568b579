package compensation

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateTiers(t *testing.T) {
	calc := MustDefaultCalculator()

	cases := []struct {
		delay       int
		tier        string
		cash, vouch float64
	}{
		{0, "", 0, 0},
		{59, "", 0, 0},
		{60, "Standard", 25, 60},
		{90, "Standard", 25, 60},
		{119, "Standard", 25, 60},
		{120, "Extended", 50, 60},
		{179, "Extended", 50, 60},
		{180, "Severe", 50, 75},
		{600, "Severe", 50, 75},
	}

	for _, tc := range cases {
		res, err := calc.Calculate(tc.delay, 100, EUR, EUR)
		if err != nil {
			t.Fatalf("Calculate(%d): %v", tc.delay, err)
		}
		if res.TierName() != tc.tier {
			t.Errorf("delay %d: tier = %q, want %q", tc.delay, res.TierName(), tc.tier)
		}
		if res.Eligible != (tc.tier != "") {
			t.Errorf("delay %d: eligible = %v", tc.delay, res.Eligible)
		}
		if res.CashAmount != tc.cash || res.VoucherAmount != tc.vouch {
			t.Errorf("delay %d: cash %.2f voucher %.2f, want %.2f %.2f", tc.delay, res.CashAmount, res.VoucherAmount, tc.cash, tc.vouch)
		}
	}
}

func TestCalculateNinetyMinutesOnHundredEuroTicket(t *testing.T) {
	res, err := MustDefaultCalculator().Calculate(90, 100, EUR, EUR)
	if err != nil {
		t.Fatal(err)
	}
	if res.CashAmount != 25.00 || res.VoucherAmount != 60.00 || res.TierName() != "Standard" {
		t.Fatalf("got %+v", res)
	}
	if res.Currency != EUR || res.DelayMinutes != 90 || res.TicketPrice != 100 {
		t.Fatalf("got %+v", res)
	}
}

func TestCalculateRoundsToMinorUnits(t *testing.T) {
	// 33.33 * 0.25 = 8.3325 rounds to 8.33; 0.60 gives 19.998 -> 20.00.
	res, err := MustDefaultCalculator().Calculate(75, 33.33, EUR, EUR)
	if err != nil {
		t.Fatal(err)
	}
	if res.CashAmount != 8.33 || res.VoucherAmount != 20.00 {
		t.Fatalf("cash %.4f voucher %.4f", res.CashAmount, res.VoucherAmount)
	}

	// 10.05 * 0.5 = 5.025 rounds up, not truncated.
	res, err = MustDefaultCalculator().Calculate(150, 10.05, EUR, EUR)
	if err != nil {
		t.Fatal(err)
	}
	if res.CashAmount != 5.03 {
		t.Fatalf("cash %.4f, want 5.03", res.CashAmount)
	}
}

func TestCalculateConvertsCurrency(t *testing.T) {
	calc, err := NewCalculator(DefaultTiers, NewConverter(0.85))
	if err != nil {
		t.Fatal(err)
	}

	res, err := calc.Calculate(200, 100, EUR, GBP)
	if err != nil {
		t.Fatal(err)
	}
	if res.Currency != GBP || res.TicketPrice != 85 || res.CashAmount != 42.5 || res.VoucherAmount != 63.75 {
		t.Fatalf("got %+v", res)
	}

	res, err = calc.Calculate(90, 85, GBP, EUR)
	if err != nil {
		t.Fatal(err)
	}
	if res.TicketPrice != 100 || res.CashAmount != 25 {
		t.Fatalf("got %+v", res)
	}
}

func TestConverterRoundTrip(t *testing.T) {
	conv := NewConverter(0.8543)
	for _, amount := range []float64{0.01, 4, 19.99, 100, 1234.56} {
		gbp, err := conv.Convert(amount, EUR, GBP)
		if err != nil {
			t.Fatal(err)
		}
		back, err := conv.Convert(gbp, GBP, EUR)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(back-amount) > 0.005 {
			t.Errorf("round trip %.2f -> %.6f -> %.6f", amount, gbp, back)
		}
		if RoundMinor(back) != amount {
			t.Errorf("round trip %.2f lost precision: %.2f", amount, RoundMinor(back))
		}
	}
}

func TestNewConverterDefaultsRate(t *testing.T) {
	if got := NewConverter(0).EURToGBP; got != DefaultEURToGBP {
		t.Errorf("rate = %v, want default", got)
	}
}

func TestParseCurrency(t *testing.T) {
	for in, want := range map[string]Currency{"": EUR, "eur": EUR, " GBP ": GBP} {
		got, err := ParseCurrency(in)
		if err != nil || got != want {
			t.Errorf("ParseCurrency(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCurrency("USD"); err == nil {
		t.Error("expected USD to be rejected")
	}
}

func TestCalculateRejectsNegativePrice(t *testing.T) {
	if _, err := MustDefaultCalculator().Calculate(90, -1, EUR, EUR); err == nil {
		t.Fatal("expected error for negative price")
	}
}

func TestValidateTiers(t *testing.T) {
	if err := ValidateTiers(DefaultTiers); err != nil {
		t.Fatalf("default tiers invalid: %v", err)
	}

	bad := map[string][]Tier{
		"empty":        nil,
		"late start":   {{Name: "A", MinDelayMinutes: 90}},
		"bounded last": {{Name: "A", MinDelayMinutes: 60, MaxDelayMinutes: bound(120)}},
		"gap": {
			{Name: "A", MinDelayMinutes: 60, MaxDelayMinutes: bound(120)},
			{Name: "B", MinDelayMinutes: 130},
		},
		"overlap": {
			{Name: "A", MinDelayMinutes: 60, MaxDelayMinutes: bound(120)},
			{Name: "B", MinDelayMinutes: 100},
		},
		"percentage": {{Name: "A", MinDelayMinutes: 60, CashPercentage: 1.5}},
		"unbounded middle": {
			{Name: "A", MinDelayMinutes: 60},
			{Name: "B", MinDelayMinutes: 120},
		},
	}
	for name, tiers := range bad {
		if err := ValidateTiers(tiers); !errors.Is(err, ErrInvalidTiers) {
			t.Errorf("%s: err = %v, want ErrInvalidTiers", name, err)
		}
		if _, err := NewCalculator(tiers, NewConverter(0.85)); err == nil {
			t.Errorf("%s: NewCalculator accepted invalid tiers", name)
		}
	}
}
