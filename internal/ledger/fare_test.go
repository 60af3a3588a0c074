package ledger

import (
	"errors"
	"math"
	"testing"

	"tripledger/internal/domain"
)

func TestComputeFare(t *testing.T) {
	t.Parallel()

	rates := domain.FareRates{Base: 700, PerKm: 500, PerMinute: 80}

	tests := []struct {
		name     string
		distance uint64
		duration uint64
		want     uint64
	}{
		{"documented scenario", 5000, 600, 4000}, // 700 + 5*500 + 10*80
		{"zero distance and duration", 0, 0, 700},
		{"sub-kilometer floors to zero", 999, 600, 700 + 10*80},
		{"sub-minute floors to zero", 5000, 59, 700 + 5*500},
		{"partial units floor", 5999, 659, 700 + 5*500 + 10*80},
		{"exactly one unit each", 1000, 60, 700 + 500 + 80},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := computeFare(rates, tt.distance, tt.duration)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("computeFare(%d, %d) = %d, want %d", tt.distance, tt.duration, got, tt.want)
			}
		})
	}
}

func TestComputeFare_ZeroRates(t *testing.T) {
	t.Parallel()

	got, err := computeFare(domain.FareRates{}, math.MaxUint64, math.MaxUint64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected zero fare with zero rates, got %d", got)
	}
}

func TestComputeFare_MaxRepresentable(t *testing.T) {
	t.Parallel()

	got, err := computeFare(domain.FareRates{Base: math.MaxUint64}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != math.MaxUint64 {
		t.Errorf("expected MaxUint64, got %d", got)
	}
}

func TestComputeFare_OverflowRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rates    domain.FareRates
		distance uint64
		duration uint64
	}{
		{
			"base plus distance component",
			domain.FareRates{Base: math.MaxUint64, PerKm: 1},
			1000, 0,
		},
		{
			"distance product alone",
			domain.FareRates{PerKm: math.MaxUint64},
			2000, 0,
		},
		{
			"duration product alone",
			domain.FareRates{PerMinute: math.MaxUint64},
			0, 120,
		},
		{
			"everything at the limit",
			domain.FareRates{Base: math.MaxUint64, PerKm: math.MaxUint64, PerMinute: math.MaxUint64},
			math.MaxUint64, math.MaxUint64,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := computeFare(tt.rates, tt.distance, tt.duration)
			if !errors.Is(err, ErrFareOverflow) {
				t.Errorf("expected ErrFareOverflow, got %v", err)
			}
		})
	}
}
