package config

import "salary-trends/models"

// DefaultLeagues returns the built-in league catalogue.
func DefaultLeagues() []models.League {
	return []models.League{
		{
			Name: "NBA",
			Slug: "nba",
			Teams: []string{
				"atlanta-hawks", "boston-celtics", "brooklyn-nets", "charlotte-hornets",
				"chicago-bulls", "cleveland-cavaliers", "dallas-mavericks", "denver-nuggets",
				"detroit-pistons", "golden-state-warriors", "houston-rockets", "indiana-pacers",
				"la-clippers", "los-angeles-lakers", "memphis-grizzlies", "miami-heat",
				"milwaukee-bucks", "minnesota-timberwolves", "new-orleans-pelicans", "new-york-knicks",
				"oklahoma-city-thunder", "orlando-magic", "philadelphia-76ers", "phoenix-suns",
				"portland-trail-blazers", "sacramento-kings", "san-antonio-spurs", "toronto-raptors",
				"utah-jazz", "washington-wizards",
			},
		},
		{
			Name: "MLB",
			Slug: "mlb",
			Teams: []string{
				"arizona-diamondbacks", "atlanta-braves", "baltimore-orioles", "boston-red-sox",
				"chicago-cubs", "chicago-white-sox", "cincinnati-reds", "cleveland-guardians",
				"colorado-rockies", "detroit-tigers", "houston-astros", "kansas-city-royals",
				"los-angeles-angels", "los-angeles-dodgers", "miami-marlins", "milwaukee-brewers",
				"minnesota-twins", "new-york-mets", "new-york-yankees", "oakland-athletics",
				"philadelphia-phillies", "pittsburgh-pirates", "san-diego-padres", "san-francisco-giants",
				"seattle-mariners", "st-louis-cardinals", "tampa-bay-rays", "texas-rangers",
				"toronto-blue-jays", "washington-nationals",
			},
		},
		{
			Name: "NWSL",
			Slug: "nwsl",
			Teams: []string{
				"bay-fc", "chicago-red-stars", "houston-dash", "kansas-city-current",
				"north-carolina-courage", "ny-nj-gotham-fc", "orlando-pride",
				"portland-thorns-fc", "racing-louisville-fc", "san-diego-wave-fc",
				"seattle-reign-fc", "utah-royals-fc", "washington-spirit",
			},
		},
	}
}
