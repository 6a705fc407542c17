package hijri

import (
	"sync"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFromGregorian_ReferencePairs(t *testing.T) {
	tests := []struct {
		in   time.Time
		want Date
	}{
		{date(2025, 3, 1), Date{1, 9, 1446}},
		{date(2025, 2, 28), Date{29, 8, 1446}},
		{date(2025, 3, 30), Date{30, 9, 1446}},
		{date(2025, 3, 31), Date{1, 10, 1446}},
		{date(2024, 3, 11), Date{1, 9, 1445}},
		{date(2026, 2, 18), Date{1, 9, 1447}},
		{date(2025, 6, 27), Date{1, 1, 1447}},
		{date(2000, 1, 1), Date{24, 9, 1420}},
	}
	for _, tt := range tests {
		t.Run(tt.in.Format("2006-01-02"), func(t *testing.T) {
			if got := FromGregorian(tt.in); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFromGregorian_IgnoresClockTime(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	early := time.Date(2025, 3, 1, 0, 1, 0, 0, jakarta)
	late := time.Date(2025, 3, 1, 23, 59, 0, 0, jakarta)
	if FromGregorian(early) != FromGregorian(late) {
		t.Error("same civil day must map to the same Hijri date")
	}
}

func TestFromGregorian_DaysAdvanceByOne(t *testing.T) {
	prev := FromGregorian(date(2024, 1, 1))
	for d := date(2024, 1, 2); d.Year() < 2027; d = d.AddDate(0, 0, 1) {
		cur := FromGregorian(d)
		switch {
		case cur.Day == prev.Day+1 && cur.Month == prev.Month && cur.Year == prev.Year:
		case cur.Day == 1 && prev.Day >= 29:
			if cur.Month == 1 && (prev.Month != 12 || cur.Year != prev.Year+1) {
				t.Fatalf("%s: bad year rollover %+v -> %+v", d.Format("2006-01-02"), prev, cur)
			}
			if cur.Month != 1 && cur.Month != prev.Month+1 {
				t.Fatalf("%s: bad month rollover %+v -> %+v", d.Format("2006-01-02"), prev, cur)
			}
		default:
			t.Fatalf("%s: discontinuity %+v -> %+v", d.Format("2006-01-02"), prev, cur)
		}
		prev = cur
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		m    int
		want string
	}{
		{1, "Muharram"},
		{9, "Ramadhan"},
		{12, "Dzulhijjah"},
		{0, "Unknown"},
		{13, "Unknown"},
	}
	for _, tt := range tests {
		if got := MonthName(tt.m); got != tt.want {
			t.Errorf("MonthName(%d) = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestDateString(t *testing.T) {
	d := Date{Day: 1, Month: 9, Year: 1446}
	if got, want := d.String(), "1 Ramadhan 1446 H"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !d.IsRamadan() {
		t.Error("month 9 should be Ramadan")
	}
}

func TestConverter_Concurrent(t *testing.T) {
	c := NewConverter()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := date(2025, 3, 1+i%2)
			got := c.Convert(d)
			if got != FromGregorian(d) {
				t.Errorf("Convert(%s) = %+v", d.Format("2006-01-02"), got)
			}
		}(i)
	}
	wg.Wait()
}
