// Package hijri converts Gregorian dates to the arithmetic (tabular) Islamic
// calendar.
//
// The conversion is the Kuwaiti algorithm: a 30-year cycle of 10631 days with
// fixed leap years. It is an approximation and can differ by a day or two from
// dates fixed by moon sighting.
package hijri

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/solar"
)

// Ramadan is the month of obligatory fasting.
const Ramadan = 9

// monthNames uses the Indonesian transliteration, indexed 1..12.
var monthNames = [...]string{
	"",
	"Muharram",
	"Safar",
	"Rabi'ul Awwal",
	"Rabi'ul Akhir",
	"Jumadil Awwal",
	"Jumadil Akhir",
	"Rajab",
	"Sya'ban",
	"Ramadhan",
	"Syawwal",
	"Dzulqa'dah",
	"Dzulhijjah",
}

// Date is a day in the Hijri calendar.
type Date struct {
	Day   int
	Month int
	Year  int
}

// MonthName returns the transliterated name of month m, or "Unknown".
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return "Unknown"
	}
	return monthNames[m]
}

// MonthName returns the name of d's month.
func (d Date) MonthName() string {
	return MonthName(d.Month)
}

// IsRamadan reports whether d falls in the fasting month.
func (d Date) IsRamadan() bool {
	return d.Month == Ramadan
}

// String formats d as "1 Ramadhan 1446 H".
func (d Date) String() string {
	return fmt.Sprintf("%d %s %d H", d.Day, d.MonthName(), d.Year)
}

// FromGregorian converts the calendar day of t, read in t's own location.
func FromGregorian(t time.Time) Date {
	jd := solar.JulianDay(t.Year(), int(t.Month()), t.Day())
	return FromJDN(int(math.Floor(jd + 0.5)))
}

// FromJDN converts a Julian Day Number (the integer day beginning at noon).
func FromJDN(jdn int) Date {
	l := jdn - 1948440 + 10632
	n := floorDiv(l-1, 10631)
	l = l - 10631*n + 354
	j := floorDiv(10985-l, 5316)*floorDiv(50*l, 17719) +
		floorDiv(l, 5670)*floorDiv(43*l, 15238)
	l = l - floorDiv(30-j, 15)*floorDiv(17719*j, 50) -
		floorDiv(j, 16)*floorDiv(15238*j, 43) + 29
	m := floorDiv(24*l, 709)
	d := l - floorDiv(709*m, 24)
	y := 30*n + j - 30
	return Date{Day: d, Month: m, Year: y}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Converter memoizes the conversion of the current day. It is safe for
// concurrent use.
type Converter struct {
	mu     sync.Mutex
	key    string
	cached Date
}

// NewConverter returns an empty Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert returns the Hijri date of t, reusing the last result when t falls
// on the same calendar day.
func (c *Converter) Convert(t time.Time) Date {
	key := t.Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == key {
		return c.cached
	}
	c.cached = FromGregorian(t)
	c.key = key
	return c.cached
}
