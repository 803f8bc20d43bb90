package policy

import "github.com/starrymeet/availability/internal/models"

// GlobalCityPool is the full set of cities a rotation may place meetings in,
// grouped by region. Profiles never receive cities in their home country.
var GlobalCityPool = []models.City{
	// North America
	{City: "New York", Country: "United States", Timezone: "America/New_York"},
	{City: "Los Angeles", Country: "United States", Timezone: "America/Los_Angeles"},
	{City: "Chicago", Country: "United States", Timezone: "America/Chicago"},
	{City: "Miami", Country: "United States", Timezone: "America/New_York"},
	{City: "San Francisco", Country: "United States", Timezone: "America/Los_Angeles"},
	{City: "Las Vegas", Country: "United States", Timezone: "America/Los_Angeles"},
	{City: "Toronto", Country: "Canada", Timezone: "America/Toronto"},
	{City: "Vancouver", Country: "Canada", Timezone: "America/Vancouver"},
	{City: "Montreal", Country: "Canada", Timezone: "America/Montreal"},

	// Europe
	{City: "London", Country: "United Kingdom", Timezone: "Europe/London"},
	{City: "Paris", Country: "France", Timezone: "Europe/Paris"},
	{City: "Berlin", Country: "Germany", Timezone: "Europe/Berlin"},
	{City: "Munich", Country: "Germany", Timezone: "Europe/Berlin"},
	{City: "Rome", Country: "Italy", Timezone: "Europe/Rome"},
	{City: "Milan", Country: "Italy", Timezone: "Europe/Rome"},
	{City: "Madrid", Country: "Spain", Timezone: "Europe/Madrid"},
	{City: "Barcelona", Country: "Spain", Timezone: "Europe/Madrid"},
	{City: "Amsterdam", Country: "Netherlands", Timezone: "Europe/Amsterdam"},
	{City: "Brussels", Country: "Belgium", Timezone: "Europe/Brussels"},
	{City: "Vienna", Country: "Austria", Timezone: "Europe/Vienna"},
	{City: "Zurich", Country: "Switzerland", Timezone: "Europe/Zurich"},
	{City: "Stockholm", Country: "Sweden", Timezone: "Europe/Stockholm"},
	{City: "Copenhagen", Country: "Denmark", Timezone: "Europe/Copenhagen"},
	{City: "Oslo", Country: "Norway", Timezone: "Europe/Oslo"},
	{City: "Dublin", Country: "Ireland", Timezone: "Europe/Dublin"},
	{City: "Lisbon", Country: "Portugal", Timezone: "Europe/Lisbon"},
	{City: "Athens", Country: "Greece", Timezone: "Europe/Athens"},
	{City: "Prague", Country: "Czech Republic", Timezone: "Europe/Prague"},
	{City: "Warsaw", Country: "Poland", Timezone: "Europe/Warsaw"},

	// Asia-Pacific
	{City: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo"},
	{City: "Seoul", Country: "South Korea", Timezone: "Asia/Seoul"},
	{City: "Singapore", Country: "Singapore", Timezone: "Asia/Singapore"},
	{City: "Hong Kong", Country: "Hong Kong", Timezone: "Asia/Hong_Kong"},
	{City: "Shanghai", Country: "China", Timezone: "Asia/Shanghai"},
	{City: "Beijing", Country: "China", Timezone: "Asia/Shanghai"},
	{City: "Bangkok", Country: "Thailand", Timezone: "Asia/Bangkok"},
	{City: "Kuala Lumpur", Country: "Malaysia", Timezone: "Asia/Kuala_Lumpur"},
	{City: "Sydney", Country: "Australia", Timezone: "Australia/Sydney"},
	{City: "Melbourne", Country: "Australia", Timezone: "Australia/Melbourne"},
	{City: "Auckland", Country: "New Zealand", Timezone: "Pacific/Auckland"},
	{City: "Mumbai", Country: "India", Timezone: "Asia/Kolkata"},
	{City: "Dubai", Country: "United Arab Emirates", Timezone: "Asia/Dubai"},

	// Middle East
	{City: "Tel Aviv", Country: "Israel", Timezone: "Asia/Jerusalem"},
	{City: "Doha", Country: "Qatar", Timezone: "Asia/Qatar"},
	{City: "Abu Dhabi", Country: "United Arab Emirates", Timezone: "Asia/Dubai"},

	// Latin America
	{City: "Mexico City", Country: "Mexico", Timezone: "America/Mexico_City"},
	{City: "São Paulo", Country: "Brazil", Timezone: "America/Sao_Paulo"},
	{City: "Rio de Janeiro", Country: "Brazil", Timezone: "America/Sao_Paulo"},
	{City: "Buenos Aires", Country: "Argentina", Timezone: "America/Argentina/Buenos_Aires"},
	{City: "Santiago", Country: "Chile", Timezone: "America/Santiago"},
	{City: "Bogotá", Country: "Colombia", Timezone: "America/Bogota"},

	// Africa
	{City: "Cape Town", Country: "South Africa", Timezone: "Africa/Johannesburg"},
	{City: "Johannesburg", Country: "South Africa", Timezone: "Africa/Johannesburg"},
	{City: "Nairobi", Country: "Kenya", Timezone: "Africa/Nairobi"},
	{City: "Cairo", Country: "Egypt", Timezone: "Africa/Cairo"},
	{City: "Marrakech", Country: "Morocco", Timezone: "Africa/Casablanca"},
}
