// Package fasting classifies days as Ramadan, sunnah Monday or Thursday, or
// neither.
package fasting

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/hijri"
	"github.com/smokyabdulrahman/jadwal-sholat/internal/prayer"
)

type Status int

const (
	None Status = iota
	Ramadan
	SunnahMonday
	SunnahThursday
)

func (s Status) String() string {
	switch s {
	case Ramadan:
		return "Puasa Ramadhan"
	case SunnahMonday:
		return "Puasa Sunnah Senin"
	case SunnahThursday:
		return "Puasa Sunnah Kamis"
	default:
		return "Tidak Berpuasa"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsFastingDay is true for obligatory and sunnah fasts.
func (s Status) IsFastingDay() bool { return s != None }

func (s Status) IsRamadan() bool { return s == Ramadan }

func (s Status) IsSunnah() bool { return s == SunnahMonday || s == SunnahThursday }

// Classify evaluates Ramadan first, then the weekday.
func Classify(date time.Time) Status {
	return ClassifyHijri(hijri.FromGregorian(date), date.Weekday())
}

// ClassifyHijri is Classify for a date already converted.
func ClassifyHijri(h hijri.Date, wd time.Weekday) Status {
	switch {
	case h.IsRamadan():
		return Ramadan
	case wd == time.Monday:
		return SunnahMonday
	case wd == time.Thursday:
		return SunnahThursday
	default:
		return None
	}
}

var dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// DayName returns the Indonesian weekday name.
func DayName(wd time.Weekday) string {
	return dayNames[wd]
}

// Day is a fasting status with the times that bound it.
type Day struct {
	Date   time.Time
	Hijri  hijri.Date
	Status Status
	Imsak  prayer.TimeOfDay
	Iftar  prayer.TimeOfDay
}

// ForSchedule classifies the schedule's date. Iftar is Maghrib.
func ForSchedule(s *prayer.Schedule) Day {
	h := hijri.FromGregorian(s.Date)
	return Day{
		Date:   s.Date,
		Hijri:  h,
		Status: ClassifyHijri(h, s.Date.Weekday()),
		Imsak:  s.Time(prayer.Imsak),
		Iftar:  s.Time(prayer.Maghrib),
	}
}

// Description is a multi-line summary for the fasting command.
func (d Day) Description() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", d.Status)
	if d.Status.IsFastingDay() {
		fmt.Fprintf(&b, "Waktu Imsak: %s\n", d.Imsak)
		fmt.Fprintf(&b, "Waktu Buka: %s", d.Iftar)
		return b.String()
	}
	b.WriteString("Tidak ada puasa wajib atau sunnah hari ini.\n")
	b.WriteString("Puasa sunnah dianjurkan pada hari Senin dan Kamis.")
	return b.String()
}
