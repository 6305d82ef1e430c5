package contracts

import (
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewFrame_SortsSymbols(t *testing.T) {
	dates := []time.Time{day(2023, 1, 2), day(2023, 1, 3)}
	// 입력 순서와 무관하게 심볼은 오름차순
	f, err := NewFrame(dates, []string{"B", "A"}, [][]float64{
		{2.0, 1.0},
		{20.0, 10.0},
	})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	syms := f.Symbols()
	if syms[0] != "A" || syms[1] != "B" {
		t.Errorf("Symbols() = %v, want [A B]", syms)
	}

	// Column values must follow their symbol through the re-sort
	if v, ok := f.At(dates[0], "A"); !ok || v != 1.0 {
		t.Errorf("At(d0, A) = %v, %v, want 1.0, true", v, ok)
	}
	if v, ok := f.At(dates[1], "B"); !ok || v != 20.0 {
		t.Errorf("At(d1, B) = %v, %v, want 20.0, true", v, ok)
	}
}

func TestNewFrame_RejectsUnorderedDates(t *testing.T) {
	dates := []time.Time{day(2023, 1, 3), day(2023, 1, 2)}
	_, err := NewFrame(dates, []string{"A"}, [][]float64{{1}, {2}})
	if err == nil {
		t.Fatal("expected error for descending dates")
	}

	// Same calendar day twice is also invalid
	dates = []time.Time{day(2023, 1, 2), day(2023, 1, 2)}
	_, err = NewFrame(dates, []string{"A"}, [][]float64{{1}, {2}})
	if err == nil {
		t.Fatal("expected error for duplicate dates")
	}
}

func TestNewFrame_RejectsDuplicateSymbols(t *testing.T) {
	dates := []time.Time{day(2023, 1, 2)}
	_, err := NewFrame(dates, []string{"A", "A"}, [][]float64{{1, 2}})
	if err == nil {
		t.Fatal("expected error for duplicate symbols")
	}
}

func TestNewFrame_RejectsRaggedRows(t *testing.T) {
	dates := []time.Time{day(2023, 1, 2)}
	_, err := NewFrame(dates, []string{"A", "B"}, [][]float64{{1}})
	if err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestFrame_At_Missing(t *testing.T) {
	dates := []time.Time{day(2023, 1, 2)}
	f, err := NewFrame(dates, []string{"A", "B"}, [][]float64{{1.0, math.NaN()}})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	// NaN cell
	if v, ok := f.At(dates[0], "B"); ok || !math.IsNaN(v) {
		t.Errorf("At NaN cell = %v, %v, want NaN, false", v, ok)
	}
	// Unknown symbol
	if _, ok := f.At(dates[0], "C"); ok {
		t.Error("expected ok=false for unknown symbol")
	}
	// Unknown date
	if _, ok := f.At(day(2023, 1, 9), "A"); ok {
		t.Error("expected ok=false for unknown date")
	}
}

func TestFrame_Row_SkipsNaN(t *testing.T) {
	dates := []time.Time{day(2023, 1, 2)}
	f, err := NewFrame(dates, []string{"A", "B", "C"}, [][]float64{{1.0, math.NaN(), 3.0}})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	row := f.Row(dates[0])
	if len(row) != 2 {
		t.Fatalf("Row() has %d entries, want 2", len(row))
	}
	if _, ok := row["B"]; ok {
		t.Error("NaN cell must not appear in Row()")
	}
	if row["A"] != 1.0 || row["C"] != 3.0 {
		t.Errorf("Row() = %v", row)
	}

	if got := f.Row(day(2023, 1, 9)); got != nil {
		t.Errorf("Row(unknown date) = %v, want nil", got)
	}
}

func TestFrame_HasDate(t *testing.T) {
	f, err := NewFrame([]time.Time{day(2023, 1, 2)}, []string{"A"}, [][]float64{{1.0}})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	if !f.HasDate(day(2023, 1, 2)) {
		t.Error("HasDate should find a known date")
	}
	if f.HasDate(day(2023, 1, 3)) {
		t.Error("HasDate should reject an unknown date")
	}
}

func TestDay_TruncatesToUTC(t *testing.T) {
	ts := time.Date(2023, 5, 8, 15, 30, 45, 123, time.UTC)
	want := time.Date(2023, 5, 8, 0, 0, 0, 0, time.UTC)
	if got := Day(ts); !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}

func TestFrame_IsEmpty(t *testing.T) {
	var nilFrame *Frame
	if !nilFrame.IsEmpty() {
		t.Error("nil frame should be empty")
	}

	f, err := NewFrame([]time.Time{}, []string{"A"}, [][]float64{})
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}
	if !f.IsEmpty() {
		t.Error("zero-row frame should be empty")
	}
}
