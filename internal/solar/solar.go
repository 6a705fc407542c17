// Package solar computes daily prayer boundaries from the sun's position.
//
// The formulas are the low-precision solar coordinates published by the
// U.S. Naval Observatory, accurate to roughly a minute between 1950 and 2050.
// All trigonometry is done in degrees.
package solar

import (
	"math"
	"time"
)

// Depression angles, in degrees below the horizon.
const (
	FajrAngle    = -18.0
	SunriseAngle = -0.833
	IshaAngle    = -17.0
)

// AsrFactor is the shadow-length multiplier used for Asr.
type AsrFactor int

const (
	// AsrStandard is the Shafi'i, Maliki and Hanbali convention.
	AsrStandard AsrFactor = 1
	// AsrHanafi doubles the shadow length.
	AsrHanafi AsrFactor = 2
)

// Valid reports whether f is a supported shadow factor.
func (f AsrFactor) Valid() bool {
	return f == AsrStandard || f == AsrHanafi
}

// Times holds the computed boundaries as fractional hours in [0,24),
// local to the UTC offset passed to Compute.
type Times struct {
	Fajr    float64
	Sunrise float64
	Dhuhr   float64
	Asr     float64
	Maghrib float64
	Isha    float64

	// Clamped names the events whose hour-angle cosine fell outside [-1,1]
	// and was saturated. Empty outside polar and near-polar summers.
	Clamped []string
}

// Indeterminate reports whether any event was saturated.
func (t Times) Indeterminate() bool {
	return len(t.Clamped) > 0
}

// Compute returns the prayer boundaries for the calendar day of date at the
// given coordinates. utcOffset is in hours east of UTC. It never fails.
func Compute(date time.Time, lat, lon, utcOffset float64, asr AsrFactor) Times {
	if !asr.Valid() {
		asr = AsrStandard
	}

	jd := JulianDay(date.Year(), int(date.Month()), date.Day())
	decl, eqt := sunPosition(jd)

	dhuhr := FixHour(12 + utcOffset - lon/15 - eqt)

	var t Times
	t.Dhuhr = dhuhr

	ha := func(name string, angle float64) float64 {
		v, clamped := hourAngle(lat, decl, angle)
		if clamped {
			t.Clamped = append(t.Clamped, name)
		}
		return v / 15
	}

	t.Fajr = FixHour(dhuhr - ha("fajr", FajrAngle))
	t.Sunrise = FixHour(dhuhr - ha("sunrise", SunriseAngle))
	t.Asr = FixHour(dhuhr + ha("asr", asrAngle(lat, decl, asr)))
	t.Maghrib = FixHour(dhuhr + ha("maghrib", SunriseAngle))
	t.Isha = FixHour(dhuhr + ha("isha", IshaAngle))

	return t
}

// JulianDay returns the Julian Day at 0h UT of a proleptic Gregorian date.
func JulianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day+b) - 1524.5
}

// sunPosition returns the sun's declination in degrees and the equation of
// time in hours for the given Julian Day.
func sunPosition(jd float64) (decl, eqt float64) {
	d := jd - 2451545.0

	g := FixAngle(357.529 + 0.98560028*d)
	q := FixAngle(280.459 + 0.98564736*d)
	l := FixAngle(q + 1.915*dsin(g) + 0.020*dsin(2*g))
	e := 23.439 - 0.00000036*d

	ra := FixHour(datan2(dcos(e)*dsin(l), dcos(l)) / 15)
	decl = dasin(dsin(e) * dsin(l))
	eqt = q/15 - ra
	return decl, eqt
}

// hourAngle is the angle in degrees between solar noon and the moment the
// sun reaches angle. The cosine argument is clamped, so the result is always
// defined; clamped reports whether saturation happened.
func hourAngle(lat, decl, angle float64) (deg float64, clamped bool) {
	x := (dsin(angle) - dsin(lat)*dsin(decl)) / (dcos(lat) * dcos(decl))
	switch {
	case x > 1:
		x, clamped = 1, true
	case x < -1:
		x, clamped = -1, true
	}
	return dacos(x), clamped
}

// asrAngle is the sun altitude at which an object's shadow equals factor times
// its length plus its noon shadow.
func asrAngle(lat, decl float64, factor AsrFactor) float64 {
	return dacot(float64(factor) + dtan(math.Abs(lat-decl)))
}

// FixAngle normalizes an angle into [0,360).
func FixAngle(a float64) float64 {
	return a - 360*math.Floor(a/360)
}

// FixHour normalizes an hour value into [0,24).
func FixHour(h float64) float64 {
	return h - 24*math.Floor(h/24)
}

func dsin(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func dcos(d float64) float64 { return math.Cos(d * math.Pi / 180) }
func dtan(d float64) float64 { return math.Tan(d * math.Pi / 180) }
func dasin(x float64) float64 { return math.Asin(x) * 180 / math.Pi }
func dacos(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
func datan2(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }
func dacot(x float64) float64 { return math.Atan(1/x) * 180 / math.Pi }
