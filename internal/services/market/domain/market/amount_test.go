package market

import (
	"errors"
	"math"
	"testing"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name         string
		paid         Amount
		rate         BasePoints
		wantPlatform Amount
		wantProducer Amount
	}{
		{"five percent of one unit", unit, 500, 50_000, 950_000},
		{"zero rate", 999, 0, 0, 999},
		{"full rate", 999, 10000, 999, 0},
		{"rounds toward producer", 3, 3333, 0, 3},
		{"floor division", 10_001, 5000, 5000, 5001},
		{"max amount full rate", math.MaxUint64, 10000, math.MaxUint64, 0},
		{"max amount 128-bit intermediate", math.MaxUint64, 9999, 18444899399302180659, 1844674407370956},
		{"zero paid", 0, 500, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, producer, err := SplitFee(tt.paid, tt.rate)
			if err != nil {
				t.Fatalf("split fee: %v", err)
			}
			if platform+producer != tt.paid {
				t.Fatalf("parts %d+%d do not sum to %d", platform, producer, tt.paid)
			}
			if platform != tt.wantPlatform || producer != tt.wantProducer {
				t.Fatalf("split = (%d, %d), want (%d, %d)", platform, producer, tt.wantPlatform, tt.wantProducer)
			}
		})
	}
}

func TestSplitFeeMatchesFloorFormula(t *testing.T) {
	for paid := Amount(0); paid < 2000; paid += 7 {
		for _, rate := range []BasePoints{0, 1, 250, 500, 3333, 9999, 10000} {
			platform, producer, err := SplitFee(paid, rate)
			if err != nil {
				t.Fatalf("split fee: %v", err)
			}
			want := Amount(uint64(paid) * uint64(rate) / 10000)
			if platform != want {
				t.Fatalf("SplitFee(%d, %d) platform = %d, want %d", paid, rate, platform, want)
			}
			if platform+producer != paid {
				t.Fatalf("SplitFee(%d, %d) loses value", paid, rate)
			}
		}
	}
}

func TestSplitFeeRejectsRateAboveMax(t *testing.T) {
	if _, _, err := SplitFee(100, 10001); !errors.Is(err, ErrFeeRateOutOfRange) {
		t.Fatalf("err = %v, want ErrFeeRateOutOfRange", err)
	}
}

func TestAddAmountOverflow(t *testing.T) {
	if _, overflow := addAmount(math.MaxUint64, 1); !overflow {
		t.Fatal("expected overflow")
	}
	if sum, overflow := addAmount(2, 3); overflow || sum != 5 {
		t.Fatalf("addAmount = %d, %v", sum, overflow)
	}
}
