package weather

// presentation describes how a WMO weather code is shown.
type presentation struct {
	condition Condition
	icon      string
	color     string
	text      string
}

// wmoCodes maps WMO weather interpretation codes to their presentation.
var wmoCodes = map[int]presentation{
	0:  {ConditionClear, "sun.max.fill", "#F5A623", "Clear sky"},
	1:  {ConditionClear, "cloud.sun.fill", "#F5A623", "Mainly clear"},
	2:  {ConditionCloudy, "cloud.sun.fill", "#9B9B9B", "Partly cloudy"},
	3:  {ConditionCloudy, "cloud.fill", "#7F8C8D", "Overcast"},
	45: {ConditionMist, "cloud.fog.fill", "#A0A7AE", "Fog"},
	48: {ConditionMist, "cloud.fog.fill", "#A0A7AE", "Depositing rime fog"},
	51: {ConditionRain, "cloud.drizzle.fill", "#5DADE2", "Light drizzle"},
	53: {ConditionRain, "cloud.drizzle.fill", "#5DADE2", "Moderate drizzle"},
	55: {ConditionRain, "cloud.drizzle.fill", "#3498DB", "Dense drizzle"},
	56: {ConditionRain, "cloud.sleet.fill", "#85C1E9", "Light freezing drizzle"},
	57: {ConditionRain, "cloud.sleet.fill", "#85C1E9", "Dense freezing drizzle"},
	61: {ConditionRain, "cloud.rain.fill", "#3498DB", "Slight rain"},
	63: {ConditionRain, "cloud.rain.fill", "#2E86C1", "Moderate rain"},
	65: {ConditionRain, "cloud.heavyrain.fill", "#1F618D", "Heavy rain"},
	66: {ConditionRain, "cloud.sleet.fill", "#85C1E9", "Light freezing rain"},
	67: {ConditionRain, "cloud.sleet.fill", "#5DADE2", "Heavy freezing rain"},
	71: {ConditionSnow, "cloud.snow.fill", "#D6EAF8", "Slight snow fall"},
	73: {ConditionSnow, "cloud.snow.fill", "#AED6F1", "Moderate snow fall"},
	75: {ConditionSnow, "snowflake", "#85C1E9", "Heavy snow fall"},
	77: {ConditionSnow, "snowflake", "#D6EAF8", "Snow grains"},
	80: {ConditionRain, "cloud.sun.rain.fill", "#5DADE2", "Slight rain showers"},
	81: {ConditionRain, "cloud.rain.fill", "#2E86C1", "Moderate rain showers"},
	82: {ConditionRain, "cloud.heavyrain.fill", "#1F618D", "Violent rain showers"},
	85: {ConditionSnow, "cloud.snow.fill", "#AED6F1", "Slight snow showers"},
	86: {ConditionSnow, "cloud.snow.fill", "#85C1E9", "Heavy snow showers"},
	95: {ConditionStorm, "cloud.bolt.rain.fill", "#8E44AD", "Thunderstorm"},
	96: {ConditionStorm, "cloud.bolt.rain.fill", "#6C3483", "Thunderstorm with slight hail"},
	99: {ConditionStorm, "cloud.bolt.rain.fill", "#4A235A", "Thunderstorm with heavy hail"},
}

var unknownPresentation = presentation{ConditionUnknown, "questionmark.circle", "#BDC3C7", "Unknown"}

func lookup(code int) presentation {
	if p, ok := wmoCodes[code]; ok {
		return p
	}
	return unknownPresentation
}

// ConditionFor maps a WMO code to a normalized condition.
func ConditionFor(code int) Condition {
	return lookup(code).condition
}

// Condition returns the normalized condition of the record's code.
func (r Record) Condition() Condition {
	return lookup(r.ConditionCode).condition
}

// Icon returns the display icon name for the record's code.
func (r Record) Icon() string {
	return lookup(r.ConditionCode).icon
}

// Color returns the display color (hex) for the record's code.
func (r Record) Color() string {
	return lookup(r.ConditionCode).color
}

// Text returns the human-readable condition.
func (r Record) Text() string {
	return lookup(r.ConditionCode).text
}
