package survivio

// Component is one of the externally probed surviv.io subsystems
type Component string

const (
	ComponentFrontend Component = "frontend"
	ComponentAPI      Component = "api"
)

// Status classifies the reachability of a component
type Status int

const (
	StatusUnknown Status = iota
	StatusUp
	StatusDown
	StatusPlannedDown
	StatusUnplannedDown
)

func (s Status) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	case StatusPlannedDown:
		return "down, planned"
	case StatusUnplannedDown:
		return "down, unplanned"
	default:
		return "unknown"
	}
}

// StatusMap is the last-known status of each probed component.
// A component missing from the map was not probed this cycle
type StatusMap map[Component]Status

func (m StatusMap) FrontendUp() bool {
	return m[ComponentFrontend] == StatusUp
}

// MarketItem is one entry of the market listing
type MarketItem struct {
	Item   string `json:"item"`
	Type   string `json:"type"`
	Price  int    `json:"price"`
	Rarity int    `json:"rarity"`
	Makr   string `json:"makr"`
	Kills  int    `json:"kills"`
	Levels int    `json:"levels"`
	Wins   int    `json:"wins"`
}

// ModeStats are the per-game-mode statistics of a player
// (index 0 solo, 1 duo, 2 squad)
type ModeStats struct {
	Games        int     `json:"games"`
	Kills        int     `json:"kills"`
	Wins         int     `json:"wins"`
	Kpg          string  `json:"kpg"`
	WinPct       float64 `json:"winPct"`
	AvgDamage    float64 `json:"avgDamage"`
	AvgTimeAlive float64 `json:"avgTimeAlive"`
	MostDamage   int     `json:"mostDamage"`
	MostKills    int     `json:"mostKills"`
}

// PlayerStats are the lifetime statistics of a player
type PlayerStats struct {
	Username string      `json:"username"`
	Banned   bool        `json:"banned"`
	Games    int         `json:"games"`
	Kills    int         `json:"kills"`
	Wins     int         `json:"wins"`
	Kpg      string      `json:"kpg"`
	Modes    []ModeStats `json:"modes"`
}
