package weather

import (
	"math"
	"math/rand/v2"

	"github.com/i474232898/calendar-weather/internal/calendar"
)

// seasonalCodes lists plausible WMO codes per meteorological season (northern hemisphere).
var seasonalCodes = map[string][]int{
	"winter": {0, 1, 2, 3, 3, 45, 61, 71, 73},
	"spring": {0, 1, 1, 2, 3, 51, 61, 80},
	"summer": {0, 0, 1, 1, 2, 3, 80, 95},
	"autumn": {1, 2, 3, 3, 45, 51, 61, 63},
}

func season(m int) string {
	switch m {
	case 12, 1, 2:
		return "winter"
	case 3, 4, 5:
		return "spring"
	case 6, 7, 8:
		return "summer"
	default:
		return "autumn"
	}
}

// Synthesize returns a deterministic, seasonally plausible pseudo-record for
// date. It is cosmetic filler for widgets without cached data and must never
// be written to the shared cache.
func Synthesize(date calendar.Date) Record {
	yd := date.YearDay()
	rng := rand.New(rand.NewPCG(uint64(date.Month), uint64(yd)))

	// Coldest mid-January, warmest mid-July.
	seasonal := 12 - 11*math.Cos(2*math.Pi*float64(yd-15)/365)
	temp := seasonal + rng.Float64()*6 - 3
	spread := 4 + rng.Float64()*5

	codes := seasonalCodes[season(int(date.Month))]
	code := codes[rng.IntN(len(codes))]
	if temp > 3 && ConditionFor(code) == ConditionSnow {
		code = 61
	}

	return Record{
		Date:          date,
		ConditionCode: code,
		Temperature:   round1(temp),
		MinTemp:       round1(temp - spread/2),
		MaxTemp:       round1(temp + spread/2),
		Humidity:      math.Round(45 + rng.Float64()*45),
		WindSpeed:     round1(3 + rng.Float64()*20),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
