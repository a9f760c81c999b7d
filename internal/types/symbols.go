package types

// Weather symbols share one ordinal scale, 1 (clear sky) through 27 (heavy snowfall).
// Higher values are roughly more severe.
const (
	SymbolMin = 1
	SymbolMax = 27
)

var symbolDescriptions = [SymbolMax + 1]string{
	1:  "Clear sky",
	2:  "Nearly clear sky",
	3:  "Variable cloudiness",
	4:  "Halfclear sky",
	5:  "Cloudy sky",
	6:  "Overcast",
	7:  "Fog",
	8:  "Light rain showers",
	9:  "Moderate rain showers",
	10: "Heavy rain showers",
	11: "Thunderstorm",
	12: "Light sleet showers",
	13: "Moderate sleet showers",
	14: "Heavy sleet showers",
	15: "Light snow showers",
	16: "Moderate snow showers",
	17: "Heavy snow showers",
	18: "Light rain",
	19: "Moderate rain",
	20: "Heavy rain",
	21: "Thunder",
	22: "Light sleet",
	23: "Moderate sleet",
	24: "Heavy sleet",
	25: "Light snowfall",
	26: "Moderate snowfall",
	27: "Heavy snowfall",
}

// SymbolDescription returns the description for a weather symbol, or "Unknown" outside 1..27.
func SymbolDescription(symbol int) string {
	if symbol < SymbolMin || symbol > SymbolMax {
		return "Unknown"
	}
	return symbolDescriptions[symbol]
}
