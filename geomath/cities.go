package geomath

// City is a named geographic point with a population, used by the sample
// data set and the demo.
type City struct {
	Name       string
	Lon        float64
	Lat        float64
	Population int
}

// SampleCities returns a fixed set of twelve major cities. The data is
// deterministic so tests and demos produce stable layers.
func SampleCities() []City {
	return []City{
		{Name: "Tokyo", Lon: 139.6917, Lat: 35.6895, Population: 37_400_000},
		{Name: "Delhi", Lon: 77.1025, Lat: 28.7041, Population: 31_000_000},
		{Name: "Shanghai", Lon: 121.4737, Lat: 31.2304, Population: 27_800_000},
		{Name: "São Paulo", Lon: -46.6333, Lat: -23.5505, Population: 22_400_000},
		{Name: "Mexico City", Lon: -99.1332, Lat: 19.4326, Population: 21_900_000},
		{Name: "Cairo", Lon: 31.2357, Lat: 30.0444, Population: 21_300_000},
		{Name: "Mumbai", Lon: 72.8777, Lat: 19.0760, Population: 20_700_000},
		{Name: "Beijing", Lon: 116.4074, Lat: 39.9042, Population: 20_500_000},
		{Name: "New York", Lon: -74.0060, Lat: 40.7128, Population: 18_800_000},
		{Name: "London", Lon: -0.1278, Lat: 51.5074, Population: 9_500_000},
		{Name: "Moscow", Lon: 37.6173, Lat: 55.7558, Population: 12_600_000},
		{Name: "Sydney", Lon: 151.2093, Lat: -33.8688, Population: 5_300_000},
	}
}
