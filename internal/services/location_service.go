package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"travelbooking/internal/utils"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 50
	DefaultGeoDBURL        = "http://geodb-free-service.wirefreethought.com/v1/geo"
)

// CitySuggestion is one autocomplete entry.
type CitySuggestion struct {
	Name       string   `json:"name"`
	Country    string   `json:"country"`
	Region     string   `json:"region"`
	Display    string   `json:"display"`
	Type       string   `json:"type"`
	Population int64    `json:"population"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	MatchScore int      `json:"match_score"`
}

type Country struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Popular bool   `json:"popular"`
}

type Route struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// geoLimiter spaces GeoDB calls 100ms apart across the process.
var geoLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

// LocationService answers city/country autocomplete. Cities come from the
// GeoDB API with a built-in list as fallback.
type LocationService struct {
	BaseURL   string
	Client    *http.Client
	Cache     suggestionCache
	Limiter   *rate.Limiter
	RequestID string
}

func (s LocationService) baseURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	return DefaultGeoDBURL
}

func (s LocationService) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 5 * time.Second}
}

func (s LocationService) cache() suggestionCache {
	if s.Cache != nil {
		return s.Cache
	}
	return defaultSuggestionCache()
}

func (s LocationService) limiter() *rate.Limiter {
	if s.Limiter != nil {
		return s.Limiter
	}
	return geoLimiter
}

// ClampLimit applies the default (10) and the maximum (50).
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSuggestionLimit
	case limit > MaxSuggestionLimit:
		return MaxSuggestionLimit
	}
	return limit
}

// matchScore ranks name against q: exact 100, prefix 90, substring 80, else 50.
func matchScore(name, q string) int {
	name, q = strings.ToLower(name), strings.ToLower(q)
	switch {
	case name == q:
		return 100
	case strings.HasPrefix(name, q):
		return 90
	case strings.Contains(name, q):
		return 80
	}
	return 50
}

func cityDisplay(name, region, country string) string {
	if region != "" && region != name {
		return fmt.Sprintf("%s, %s, %s", name, region, country)
	}
	return fmt.Sprintf("%s, %s", name, country)
}

func rankSuggestions(in []CitySuggestion) {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].MatchScore != in[j].MatchScore {
			return in[i].MatchScore > in[j].MatchScore
		}
		return in[i].Population > in[j].Population
	})
}

// Cities returns up to limit suggestions for q (at least 2 characters),
// optionally restricted to country.
func (s LocationService) Cities(ctx context.Context, q string, limit int, country string) []CitySuggestion {
	q = utils.NormalizeSpace(q)
	if len([]rune(q)) < 2 {
		return []CitySuggestion{}
	}
	limit = ClampLimit(limit)
	country = strings.TrimSpace(country)

	key := strings.ToLower(fmt.Sprintf("%s|%s|%d", q, country, limit))
	if cached, ok := s.cache().Get(ctx, key); ok {
		return cached
	}

	out, err := s.fetchCities(ctx, q, limit, country)
	if err != nil {
		utils.LogWarn(s.RequestID, "location", "geodb", err.Error())
		return fallbackCities(q, limit, country)
	}
	s.cache().Set(ctx, key, out)
	return out
}

func (s LocationService) fetchCities(ctx context.Context, q string, limit int, country string) ([]CitySuggestion, error) {
	if err := s.limiter().Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("namePrefix", q)
	params.Set("limit", strconv.Itoa(min(limit*2, 20)))
	params.Set("sort", "name")
	if code := CountryCode(country); code != "" {
		params.Set("countryIds", code)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL()+"/cities?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "travelbooking/1.0")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geodb status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("geodb returned invalid json")
	}

	out := []CitySuggestion{}
	gjson.GetBytes(body, "data").ForEach(func(_, city gjson.Result) bool {
		name := city.Get("name").String()
		sug := CitySuggestion{
			Name:       name,
			Country:    city.Get("country").String(),
			Region:     city.Get("region").String(),
			Type:       "city",
			Population: city.Get("population").Int(),
			MatchScore: matchScore(name, q),
		}
		if lat := city.Get("latitude"); lat.Exists() {
			v := lat.Float()
			sug.Latitude = &v
		}
		if lng := city.Get("longitude"); lng.Exists() {
			v := lng.Float()
			sug.Longitude = &v
		}
		sug.Display = cityDisplay(sug.Name, sug.Region, sug.Country)
		out = append(out, sug)
		return true
	})
	rankSuggestions(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func fallbackCities(q string, limit int, country string) []CitySuggestion {
	ql := strings.ToLower(q)
	cl := strings.ToLower(country)
	out := []CitySuggestion{}
	for _, c := range referenceCities {
		if cl != "" && !strings.Contains(strings.ToLower(c.Country), cl) {
			continue
		}
		if !strings.Contains(strings.ToLower(c.Name), ql) && !strings.Contains(strings.ToLower(c.Country), ql) {
			continue
		}
		out = append(out, CitySuggestion{
			Name:       c.Name,
			Country:    c.Country,
			Region:     c.Region,
			Display:    fmt.Sprintf("%s, %s, %s", c.Name, c.Region, c.Country),
			Type:       "city",
			MatchScore: matchScore(c.Name, q),
		})
	}
	rankSuggestions(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Countries filters the popular country list by substring; an empty query
// returns the first limit entries.
func (s LocationService) Countries(q string, limit int) []Country {
	limit = ClampLimit(limit)
	ql := strings.ToLower(strings.TrimSpace(q))
	out := []Country{}
	for _, c := range popularCountries {
		if ql == "" || strings.Contains(strings.ToLower(c.Name), ql) {
			out = append(out, c)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// CountryCode maps a country name (or common alias) to its ISO code.
func CountryCode(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	switch name {
	case "usa":
		return "US"
	case "uk":
		return "GB"
	case "uae":
		return "AE"
	}
	for _, c := range popularCountries {
		if strings.ToLower(c.Name) == name || strings.ToLower(c.Code) == name {
			return c.Code
		}
	}
	return ""
}

var genericHotelAreas = []string{
	"City Center", "Business District", "Airport Area",
	"Railway Station Area", "Tourist District", "Beach Area",
}

var cityHotelAreas = map[string][]string{
	"mumbai":    {"Colaba", "Bandra", "Juhu", "Andheri", "Powai", "BKC"},
	"delhi":     {"Connaught Place", "Karol Bagh", "Paharganj", "Aerocity", "Gurgaon"},
	"bangalore": {"Whitefield", "Koramangala", "Indiranagar", "Electronic City", "MG Road"},
	"bengaluru": {"Whitefield", "Koramangala", "Indiranagar", "Electronic City", "MG Road"},
	"goa":       {"North Goa", "South Goa", "Panaji", "Calangute", "Baga"},
	"jaipur":    {"Pink City", "Civil Lines", "Malviya Nagar", "Vaishali Nagar"},
	"london":    {"Westminster", "Covent Garden", "Camden", "Shoreditch", "Kensington"},
	"paris":     {"Champs-Élysées", "Marais", "Saint-Germain", "Montmartre", "Louvre"},
	"new york":  {"Manhattan", "Brooklyn", "Times Square", "Central Park", "Financial District"},
	"dubai":     {"Downtown", "Marina", "JBR", "Deira", "Bur Dubai"},
	"bangkok":   {"Sukhumvit", "Silom", "Khao San Road", "Siam", "Chatuchak"},
}

// HotelAreas returns known neighbourhoods of city followed by generic areas.
func (s LocationService) HotelAreas(city string) []string {
	specific := cityHotelAreas[strings.ToLower(utils.NormalizeSpace(city))]
	out := make([]string, 0, len(specific)+len(genericHotelAreas))
	out = append(out, specific...)
	return append(out, genericHotelAreas...)
}

func (s LocationService) PopularRoutes() []Route {
	return append([]Route(nil), popularRoutes...)
}

var popularCountries = []Country{
	{"India", "IN", true}, {"United States", "US", true}, {"United Kingdom", "GB", true},
	{"France", "FR", true}, {"Germany", "DE", true}, {"Japan", "JP", true},
	{"Australia", "AU", true}, {"Canada", "CA", true}, {"Singapore", "SG", true},
	{"United Arab Emirates", "AE", true}, {"Thailand", "TH", true}, {"Malaysia", "MY", true},
	{"Spain", "ES", true}, {"Italy", "IT", true}, {"Netherlands", "NL", true},
	{"South Korea", "KR", true}, {"China", "CN", true}, {"Brazil", "BR", true},
	{"Russia", "RU", true}, {"Turkey", "TR", true},
}

var popularRoutes = []Route{
	{"Mumbai", "Pune"}, {"Delhi", "Jaipur"}, {"Delhi", "Agra"}, {"Mumbai", "Goa"},
	{"Bangalore", "Mysore"}, {"Chennai", "Pondicherry"}, {"Delhi", "Shimla"},
	{"Delhi", "Manali"}, {"Kochi", "Munnar"}, {"Jaipur", "Udaipur"},
	{"Mumbai", "Dubai"}, {"Delhi", "London"}, {"Bangalore", "Singapore"},
	{"Mumbai", "New York"}, {"Delhi", "Paris"}, {"Chennai", "Bangkok"},
	{"Delhi", "Tokyo"}, {"Mumbai", "Sydney"}, {"Bangalore", "San Francisco"},
	{"Delhi", "Frankfurt"}, {"Bangkok", "Phuket"}, {"London", "Paris"},
	{"New York", "Los Angeles"}, {"Dubai", "Istanbul"}, {"Singapore", "Kuala Lumpur"},
}

type referenceCity struct {
	Name, Country, Region string
}

var referenceCities = []referenceCity{
	{"New York", "United States", "New York"},
	{"London", "United Kingdom", "England"},
	{"Paris", "France", "Île-de-France"},
	{"Tokyo", "Japan", "Tokyo"},
	{"Dubai", "United Arab Emirates", "Dubai"},
	{"Singapore", "Singapore", "Singapore"},
	{"Sydney", "Australia", "New South Wales"},
	{"Bangkok", "Thailand", "Bangkok"},
	{"Istanbul", "Turkey", "Istanbul"},
	{"Rome", "Italy", "Lazio"},
	{"Barcelona", "Spain", "Catalonia"},
	{"Amsterdam", "Netherlands", "North Holland"},
	{"Seoul", "South Korea", "Seoul"},
	{"Hong Kong", "Hong Kong", "Hong Kong"},
	{"Kuala Lumpur", "Malaysia", "Kuala Lumpur"},

	{"Mumbai", "India", "Maharashtra"},
	{"Delhi", "India", "Delhi"},
	{"Bangalore", "India", "Karnataka"},
	{"Bengaluru", "India", "Karnataka"},
	{"Chennai", "India", "Tamil Nadu"},
	{"Kolkata", "India", "West Bengal"},
	{"Hyderabad", "India", "Telangana"},
	{"Pune", "India", "Maharashtra"},
	{"Jaipur", "India", "Rajasthan"},
	{"Ahmedabad", "India", "Gujarat"},
	{"Surat", "India", "Gujarat"},
	{"Lucknow", "India", "Uttar Pradesh"},
	{"Kanpur", "India", "Uttar Pradesh"},
	{"Nagpur", "India", "Maharashtra"},
	{"Indore", "India", "Madhya Pradesh"},
	{"Bhopal", "India", "Madhya Pradesh"},
	{"Visakhapatnam", "India", "Andhra Pradesh"},
	{"Patna", "India", "Bihar"},
	{"Vadodara", "India", "Gujarat"},
	{"Ludhiana", "India", "Punjab"},
	{"Agra", "India", "Uttar Pradesh"},
	{"Nashik", "India", "Maharashtra"},
	{"Varanasi", "India", "Uttar Pradesh"},
	{"Srinagar", "India", "Jammu and Kashmir"},
	{"Amritsar", "India", "Punjab"},
	{"Navi Mumbai", "India", "Maharashtra"},
	{"Prayagraj", "India", "Uttar Pradesh"},
	{"Ranchi", "India", "Jharkhand"},
	{"Coimbatore", "India", "Tamil Nadu"},
	{"Jodhpur", "India", "Rajasthan"},
	{"Madurai", "India", "Tamil Nadu"},
	{"Raipur", "India", "Chhattisgarh"},
	{"Guwahati", "India", "Assam"},
	{"Chandigarh", "India", "Chandigarh"},
	{"Thiruvananthapuram", "India", "Kerala"},
	{"Mysore", "India", "Karnataka"},
	{"Gurugram", "India", "Haryana"},
	{"Noida", "India", "Uttar Pradesh"},
	{"Bhubaneswar", "India", "Odisha"},
	{"Kochi", "India", "Kerala"},
	{"Dehradun", "India", "Uttarakhand"},
	{"Mangalore", "India", "Karnataka"},
	{"Udaipur", "India", "Rajasthan"},
	{"Goa", "India", "Goa"},
	{"Shimla", "India", "Himachal Pradesh"},
	{"Manali", "India", "Himachal Pradesh"},
	{"Rishikesh", "India", "Uttarakhand"},
	{"Pondicherry", "India", "Puducherry"},
	{"Munnar", "India", "Kerala"},
	{"Sri Ganganagar", "India", "Rajasthan"},
}
