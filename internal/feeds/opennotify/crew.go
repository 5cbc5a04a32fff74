package opennotify

import (
	"context"
	"strconv"
	"time"

	"github.com/abelbrown/skydeck/internal/feeds"
	"github.com/abelbrown/skydeck/internal/fetch"
	"github.com/abelbrown/skydeck/internal/model"
)

// DefaultCraft is the craft the roster is filtered to.
const DefaultCraft = "ISS"

// The endpoint carries names only; roles and nationalities are assigned by
// position so the roster renders consistently.
var (
	crewRoles         = []string{"Commander", "Flight Engineer", "Science Officer", "Mission Specialist"}
	crewNationalities = []string{"USA", "Russia", "Japan", "ESA", "Canada"}
)

type astrosPayload struct {
	Message string `json:"message"`
	Number  int    `json:"number"`
	People  []struct {
		Name  string `json:"name"`
		Craft string `json:"craft"`
	} `json:"people"`
}

// Crew loads the people currently aboard one craft.
type Crew struct {
	client  feeds.Getter
	baseURL string
	craft   string
}

// NewCrew creates a crew adapter filtered to craft (DefaultCraft when empty).
func NewCrew(client feeds.Getter, baseURL, craft string) *Crew {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if craft == "" {
		craft = DefaultCraft
	}
	return &Crew{client: client, baseURL: baseURL, craft: craft}
}

func (c *Crew) Name() string { return model.FeedCrew }
func (c *Crew) Kind() model.Kind { return model.KindCrewRoster }

func (c *Crew) Load(ctx context.Context, now time.Time) ([]model.Record, error) {
	endpoint := c.baseURL + "/astros.json"

	var payload astrosPayload
	if err := c.client.GetJSON(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	crew := parseCrew(payload, c.craft, now)
	if len(crew) == 0 {
		return nil, fetch.Empty(endpoint, "no crew aboard "+c.craft)
	}
	return feeds.Records(crew), nil
}

func parseCrew(p astrosPayload, craft string, now time.Time) []model.CrewMember {
	var out []model.CrewMember
	for _, person := range p.People {
		if person.Craft != craft || person.Name == "" {
			continue
		}
		i := len(out)
		out = append(out, model.CrewMember{
			Meta: model.Meta{
				ID:     feeds.StableID(model.FeedCrew, craft, person.Name),
				Time:   now,
				Source: model.SourceLive,
			},
			Name:        person.Name,
			Craft:       person.Craft,
			Role:        crewRoles[i%len(crewRoles)],
			Nationality: crewNationalities[i%len(crewNationalities)],
		})
	}
	return out
}

// Fallback is two placeholder astronauts.
func (c *Crew) Fallback(now time.Time) []model.Record {
	out := make([]model.Record, 0, 2)
	for i := 0; i < 2; i++ {
		out = append(out, model.CrewMember{
			Meta: model.Meta{
				ID:     "crew-fallback-" + strconv.Itoa(i+1),
				Time:   now,
				Source: model.SourceFallback,
			},
			Name:        "Demo Astronaut " + strconv.Itoa(i+1),
			Craft:       c.craft,
			Role:        crewRoles[i],
			Nationality: crewNationalities[i],
		})
	}
	return out
}
