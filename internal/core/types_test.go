package core

import (
	"testing"
	"time"
)

func TestPriceRecord_Change(t *testing.T) {
	tests := []struct {
		name   string
		rec    PriceRecord
		change float64
		gained bool
	}{
		{"gain", PriceRecord{Symbol: "A", Open: 10, AdjClose: 12}, 2, true},
		{"loss", PriceRecord{Symbol: "B", Open: 20, AdjClose: 19}, -1, false},
		{"flat", PriceRecord{Symbol: "C", Open: 5, AdjClose: 5}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Change(); got != tt.change {
				t.Errorf("Change() = %v, want %v", got, tt.change)
			}
			if got := tt.rec.Gained(); got != tt.gained {
				t.Errorf("Gained() = %v, want %v", got, tt.gained)
			}
		})
	}
}

func TestTruncateDate(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2024, 3, 15, 17, 45, 0, 0, loc)
	got := TruncateDate(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TruncateDate() = %v, want %v", got, want)
	}
}
