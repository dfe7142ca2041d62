package location

import "github.com/i474232898/calendar-weather/internal/weather"

// zoneCoordinates maps IANA time zone identifiers to a representative city.
var zoneCoordinates = map[string]weather.Position{
	"Asia/Tokyo":          {Lat: 35.6762, Lon: 139.6503, City: "Tokyo", Country: "JP"},
	"Asia/Seoul":          {Lat: 37.5665, Lon: 126.9780, City: "Seoul", Country: "KR"},
	"Asia/Shanghai":       {Lat: 31.2304, Lon: 121.4737, City: "Shanghai", Country: "CN"},
	"Asia/Hong_Kong":      {Lat: 22.3193, Lon: 114.1694, City: "Hong Kong", Country: "HK"},
	"Asia/Taipei":         {Lat: 25.0330, Lon: 121.5654, City: "Taipei", Country: "TW"},
	"Asia/Singapore":      {Lat: 1.3521, Lon: 103.8198, City: "Singapore", Country: "SG"},
	"Asia/Bangkok":        {Lat: 13.7563, Lon: 100.5018, City: "Bangkok", Country: "TH"},
	"Asia/Jakarta":        {Lat: -6.2088, Lon: 106.8456, City: "Jakarta", Country: "ID"},
	"Asia/Manila":         {Lat: 14.5995, Lon: 120.9842, City: "Manila", Country: "PH"},
	"Asia/Kolkata":        {Lat: 19.0760, Lon: 72.8777, City: "Mumbai", Country: "IN"},
	"Asia/Dubai":          {Lat: 25.2048, Lon: 55.2708, City: "Dubai", Country: "AE"},
	"Europe/London":       {Lat: 51.5074, Lon: -0.1278, City: "London", Country: "GB"},
	"Europe/Dublin":       {Lat: 53.3498, Lon: -6.2603, City: "Dublin", Country: "IE"},
	"Europe/Paris":        {Lat: 48.8566, Lon: 2.3522, City: "Paris", Country: "FR"},
	"Europe/Berlin":       {Lat: 52.5200, Lon: 13.4050, City: "Berlin", Country: "DE"},
	"Europe/Madrid":       {Lat: 40.4168, Lon: -3.7038, City: "Madrid", Country: "ES"},
	"Europe/Rome":         {Lat: 41.9028, Lon: 12.4964, City: "Rome", Country: "IT"},
	"Europe/Amsterdam":    {Lat: 52.3676, Lon: 4.9041, City: "Amsterdam", Country: "NL"},
	"Europe/Stockholm":    {Lat: 59.3293, Lon: 18.0686, City: "Stockholm", Country: "SE"},
	"Europe/Warsaw":       {Lat: 52.2297, Lon: 21.0122, City: "Warsaw", Country: "PL"},
	"Europe/Moscow":       {Lat: 55.7558, Lon: 37.6173, City: "Moscow", Country: "RU"},
	"Europe/Istanbul":     {Lat: 41.0082, Lon: 28.9784, City: "Istanbul", Country: "TR"},
	"Africa/Cairo":        {Lat: 30.0444, Lon: 31.2357, City: "Cairo", Country: "EG"},
	"Africa/Johannesburg": {Lat: -26.2041, Lon: 28.0473, City: "Johannesburg", Country: "ZA"},
	"Africa/Lagos":        {Lat: 6.5244, Lon: 3.3792, City: "Lagos", Country: "NG"},
	"America/New_York":    {Lat: 40.7128, Lon: -74.0060, City: "New York", Country: "US"},
	"America/Chicago":     {Lat: 41.8781, Lon: -87.6298, City: "Chicago", Country: "US"},
	"America/Denver":      {Lat: 39.7392, Lon: -104.9903, City: "Denver", Country: "US"},
	"America/Los_Angeles": {Lat: 34.0522, Lon: -118.2437, City: "Los Angeles", Country: "US"},
	"America/Toronto":     {Lat: 43.6532, Lon: -79.3832, City: "Toronto", Country: "CA"},
	"America/Vancouver":   {Lat: 49.2827, Lon: -123.1207, City: "Vancouver", Country: "CA"},
	"America/Mexico_City": {Lat: 19.4326, Lon: -99.1332, City: "Mexico City", Country: "MX"},
	"America/Sao_Paulo":   {Lat: -23.5505, Lon: -46.6333, City: "São Paulo", Country: "BR"},
	"America/Buenos_Aires": {Lat: -34.6037, Lon: -58.3816, City: "Buenos Aires", Country: "AR"},
	"America/Argentina/Buenos_Aires": {Lat: -34.6037, Lon: -58.3816, City: "Buenos Aires", Country: "AR"},
	"Australia/Sydney":    {Lat: -33.8688, Lon: 151.2093, City: "Sydney", Country: "AU"},
	"Australia/Melbourne": {Lat: -37.8136, Lon: 144.9631, City: "Melbourne", Country: "AU"},
	"Pacific/Auckland":    {Lat: -36.8485, Lon: 174.7633, City: "Auckland", Country: "NZ"},
	"Pacific/Honolulu":    {Lat: 21.3069, Lon: -157.8583, City: "Honolulu", Country: "US"},
}

// countryCentroids maps ISO 3166-1 alpha-2 codes to an approximate population centre.
var countryCentroids = map[string]weather.Position{
	"JP": {Lat: 36.2048, Lon: 138.2529, Country: "JP"},
	"KR": {Lat: 36.5, Lon: 127.8, Country: "KR"},
	"CN": {Lat: 35.8617, Lon: 104.1954, Country: "CN"},
	"TW": {Lat: 23.6978, Lon: 120.9605, Country: "TW"},
	"IN": {Lat: 20.5937, Lon: 78.9629, Country: "IN"},
	"ID": {Lat: -2.5489, Lon: 118.0149, Country: "ID"},
	"TH": {Lat: 15.8700, Lon: 100.9925, Country: "TH"},
	"GB": {Lat: 52.3555, Lon: -1.1743, Country: "GB"},
	"IE": {Lat: 53.4129, Lon: -8.2439, Country: "IE"},
	"FR": {Lat: 46.2276, Lon: 2.2137, Country: "FR"},
	"DE": {Lat: 51.1657, Lon: 10.4515, Country: "DE"},
	"ES": {Lat: 40.4637, Lon: -3.7492, Country: "ES"},
	"IT": {Lat: 41.8719, Lon: 12.5674, Country: "IT"},
	"NL": {Lat: 52.1326, Lon: 5.2913, Country: "NL"},
	"SE": {Lat: 60.1282, Lon: 18.6435, Country: "SE"},
	"PL": {Lat: 51.9194, Lon: 19.1451, Country: "PL"},
	"RU": {Lat: 55.7558, Lon: 37.6173, Country: "RU"},
	"TR": {Lat: 38.9637, Lon: 35.2433, Country: "TR"},
	"US": {Lat: 39.8283, Lon: -98.5795, Country: "US"},
	"CA": {Lat: 45.4215, Lon: -75.6972, Country: "CA"},
	"MX": {Lat: 23.6345, Lon: -102.5528, Country: "MX"},
	"BR": {Lat: -14.2350, Lon: -51.9253, Country: "BR"},
	"AR": {Lat: -38.4161, Lon: -63.6167, Country: "AR"},
	"AU": {Lat: -25.2744, Lon: 133.7751, Country: "AU"},
	"NZ": {Lat: -40.9006, Lon: 174.8860, Country: "NZ"},
	"ZA": {Lat: -30.5595, Lon: 22.9375, Country: "ZA"},
	"EG": {Lat: 26.8206, Lon: 30.8025, Country: "EG"},
	"NG": {Lat: 9.0820, Lon: 8.6753, Country: "NG"},
	"AE": {Lat: 23.4241, Lon: 53.8478, Country: "AE"},
	"SG": {Lat: 1.3521, Lon: 103.8198, Country: "SG"},
}

// builtinDefaults is the rotating list used when nothing better is known.
var builtinDefaults = []weather.Position{
	{Lat: 35.6762, Lon: 139.6503, City: "Tokyo", Country: "JP", Timezone: "Asia/Tokyo"},
	{Lat: 40.7128, Lon: -74.0060, City: "New York", Country: "US", Timezone: "America/New_York"},
	{Lat: 51.5074, Lon: -0.1278, City: "London", Country: "GB", Timezone: "Europe/London"},
	{Lat: 48.8566, Lon: 2.3522, City: "Paris", Country: "FR", Timezone: "Europe/Paris"},
	{Lat: -33.8688, Lon: 151.2093, City: "Sydney", Country: "AU", Timezone: "Australia/Sydney"},
	{Lat: 37.5665, Lon: 126.9780, City: "Seoul", Country: "KR", Timezone: "Asia/Seoul"},
	{Lat: 34.0522, Lon: -118.2437, City: "Los Angeles", Country: "US", Timezone: "America/Los_Angeles"},
}
