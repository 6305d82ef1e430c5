package calendar

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// 2023-01-02 (월) ~ 2023-02-03 (금), 주말 제외
func weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, t)
	}
	return out
}

func TestParseFrequency(t *testing.T) {
	for _, valid := range []string{"D", "W", "M"} {
		if _, err := ParseFrequency(valid); err != nil {
			t.Errorf("ParseFrequency(%s) failed: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "d", "Q", "weekly"} {
		if _, err := ParseFrequency(invalid); err == nil {
			t.Errorf("ParseFrequency(%s) should fail", invalid)
		}
	}
}

func TestSchedule_Daily(t *testing.T) {
	dates := weekdays(d(2023, 1, 2), d(2023, 1, 13))

	got, err := Schedule(dates, FreqDaily)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(got) != len(dates) {
		t.Fatalf("daily schedule has %d dates, want %d", len(got), len(dates))
	}
	for i := range got {
		if !got[i].Equal(dates[i]) {
			t.Errorf("date %d = %v, want %v", i, got[i], dates[i])
		}
	}
}

func TestSchedule_Weekly_LastTradingDayOfWeek(t *testing.T) {
	// 2주 + 금요일 하나 휴장: 1/13(금)이 빠지면 1/12(목)이 그 주의 리밸런싱일
	dates := weekdays(d(2023, 1, 2), d(2023, 1, 20))
	var withHoliday []time.Time
	for _, dt := range dates {
		if dt.Equal(d(2023, 1, 13)) {
			continue
		}
		withHoliday = append(withHoliday, dt)
	}

	got, err := Schedule(withHoliday, FreqWeekly)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	want := []time.Time{d(2023, 1, 6), d(2023, 1, 12), d(2023, 1, 20)}
	if len(got) != len(want) {
		t.Fatalf("weekly schedule = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("weekly[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSchedule_Monthly_LastTradingDayOfMonth(t *testing.T) {
	dates := weekdays(d(2023, 1, 2), d(2023, 3, 15))

	got, err := Schedule(dates, FreqMonthly)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	// 1/31(화), 2/28(화), 그리고 마지막 거래일 3/15
	want := []time.Time{d(2023, 1, 31), d(2023, 2, 28), d(2023, 3, 15)}
	if len(got) != len(want) {
		t.Fatalf("monthly schedule = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("monthly[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSchedule_SubsetAndAscending(t *testing.T) {
	dates := weekdays(d(2023, 1, 2), d(2023, 6, 30))
	inCalendar := make(map[int64]bool, len(dates))
	for _, dt := range dates {
		inCalendar[dt.Unix()] = true
	}

	for _, freq := range []Frequency{FreqDaily, FreqWeekly, FreqMonthly} {
		got, err := Schedule(dates, freq)
		if err != nil {
			t.Fatalf("Schedule(%s) failed: %v", freq, err)
		}
		for i, dt := range got {
			if !inCalendar[dt.Unix()] {
				t.Errorf("freq %s: %v is not a trading date", freq, dt)
			}
			if i > 0 && !got[i-1].Before(dt) {
				t.Errorf("freq %s: schedule not strictly ascending at %d", freq, i)
			}
		}
	}
}

func TestSchedule_EdgeCases(t *testing.T) {
	// Empty calendar
	got, err := Schedule(nil, FreqWeekly)
	if err != nil {
		t.Fatalf("Schedule(empty) failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty calendar schedule = %v, want empty", got)
	}

	// Single date closes its own bucket
	single := []time.Time{d(2023, 1, 4)}
	for _, freq := range []Frequency{FreqDaily, FreqWeekly, FreqMonthly} {
		got, err := Schedule(single, freq)
		if err != nil {
			t.Fatalf("Schedule(single, %s) failed: %v", freq, err)
		}
		if len(got) != 1 || !got[0].Equal(single[0]) {
			t.Errorf("freq %s: single-date schedule = %v", freq, got)
		}
	}

	// Invalid frequency
	if _, err := Schedule(single, Frequency("X")); err == nil {
		t.Error("expected error for invalid frequency")
	}
}
