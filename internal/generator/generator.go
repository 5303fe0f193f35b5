package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/vanshika/separation/internal/dataset"
)

// Dataset contains the generated player and teammate tables.
type Dataset struct {
	Players   []dataset.PlayerRecord
	Teammates []dataset.TeammateRecord
}

// Generator produces synthetic tables in the shape the dataset loader reads.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumPlayers <= 0 {
		cfg.NumPlayers = def.NumPlayers
	}
	if cfg.NumClubs <= 0 {
		cfg.NumClubs = def.NumClubs
	}
	if cfg.Seasons <= 0 {
		cfg.Seasons = def.Seasons
	}
	if cfg.PairChance <= 0 {
		cfg.PairChance = def.PairChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
	}
}

type pairKey struct{ a, b int }

type pairStats struct {
	minutes int
	goals   int
}

// Generate synthesises the tables. Each season every player joins one club;
// squad mates that share the pitch accumulate minutes and joint goals.
// Teammate rows are emitted in both directions, as in the scraped source data.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	clubs := g.clubNames()
	ids := make([]int, g.cfg.NumPlayers)
	for i := range ids {
		ids[i] = 10000 + i*7
	}

	currentClub := make([]string, len(ids))
	pairs := make(map[pairKey]*pairStats)
	var order []pairKey

	for season := 0; season < g.cfg.Seasons; season++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		squads := make([][]int, len(clubs))
		for idx := range ids {
			c := g.rand.Intn(len(clubs))
			squads[c] = append(squads[c], idx)
			currentClub[idx] = clubs[c]
		}
		for _, squad := range squads {
			for i := 0; i < len(squad); i++ {
				for j := i + 1; j < len(squad); j++ {
					if g.rand.Float64() >= g.cfg.PairChance {
						continue
					}
					key := pairKey{a: squad[i], b: squad[j]}
					st, ok := pairs[key]
					if !ok {
						st = &pairStats{}
						pairs[key] = st
						order = append(order, key)
					}
					st.minutes += 90 * (1 + g.rand.Intn(30))
					if g.rand.Intn(4) == 0 {
						st.goals += 1 + g.rand.Intn(3)
					}
				}
			}
		}
	}

	ds := Dataset{
		Players:   make([]dataset.PlayerRecord, 0, len(ids)),
		Teammates: make([]dataset.TeammateRecord, 0, len(order)*2),
	}

	seenNames := make(map[string]int, len(ids))
	for idx, id := range ids {
		name := g.randomFullName()
		seenNames[name]++
		if n := seenNames[name]; n > 1 {
			// Duplicate names carry a numeric disambiguator, which the loader strips.
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		club := currentClub[idx]
		if g.rand.Float64() < g.cfg.MissingClubChance {
			club = ""
		}
		ds.Players = append(ds.Players, dataset.PlayerRecord{
			PlayerID:       strconv.Itoa(id),
			Name:           name,
			DateOfBirth:    g.randomDOB(),
			Club:           club,
			Citizenship:    g.pick(g.fragments.countries),
			Position:       g.pick(g.fragments.positions),
			CountryOfBirth: g.pick(g.fragments.countries),
		})
	}

	for _, key := range order {
		st := pairs[key]
		a, b := strconv.Itoa(ids[key.a]), strconv.Itoa(ids[key.b])
		minutes, goals := strconv.Itoa(st.minutes), strconv.Itoa(st.goals)
		ds.Teammates = append(ds.Teammates,
			dataset.TeammateRecord{PlayerID: a, TeammateID: b, Minutes: minutes, JointGoals: goals},
			dataset.TeammateRecord{PlayerID: b, TeammateID: a, Minutes: minutes, JointGoals: goals},
		)
	}

	return ds, nil
}

func (g *Generator) clubNames() []string {
	out := make([]string, g.cfg.NumClubs)
	for i := range out {
		out[i] = fmt.Sprintf("%s %s", g.pick(g.fragments.cities), g.fragments.clubSuffixes[i%len(g.fragments.clubSuffixes)])
		if i >= len(g.fragments.clubSuffixes) {
			out[i] = fmt.Sprintf("%s %d", out[i], i/len(g.fragments.clubSuffixes)+1)
		}
	}
	return out
}

func (g *Generator) randomFullName() string {
	return g.pick(g.fragments.first) + " " + g.pick(g.fragments.last)
}

func (g *Generator) randomDOB() string {
	if g.rand.Float64() < g.cfg.BadDOBChance {
		return g.pick([]string{"", "unknown", "n/a"})
	}
	dob := time.Date(1975+g.rand.Intn(30), time.Month(1+g.rand.Intn(12)), 1+g.rand.Intn(28), 0, 0, 0, 0, time.UTC)
	return dob.Format(time.DateOnly)
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

type nameFragments struct {
	first        []string
	last         []string
	cities       []string
	clubSuffixes []string
	countries    []string
	positions    []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:        []string{"Lucas", "Mateo", "João", "Kylian", "Thomas", "Luka", "Sergio", "Marco", "Kevin", "Mohamed", "Virgil", "Erling", "Jude", "Pedri", "Andrés", "Zlatan", "Robert", "Sadio", "Hakim", "Son"},
		last:         []string{"Silva", "Müller", "García", "Rossi", "Martínez", "Kane", "Fernandes", "Schmidt", "Dubois", "van Dijk", "Jensen", "Novak", "Kovačić", "Yilmaz", "Mendes", "Okafor", "Nakamura", "Santos", "Hernández", "Ziyech"},
		cities:       []string{"Porto", "Milano", "Madrid", "Dortmund", "Lyon", "Ajax", "Sevilla", "Napoli", "Celtic", "Benfica", "Leipzig", "Marseille"},
		clubSuffixes: []string{"FC", "United", "City", "Athletic", "Sporting", "Rovers"},
		countries:    []string{"Brazil", "Germany", "Spain", "Italy", "France", "England", "Portugal", "Netherlands", "Argentina", "Croatia", "Nigeria", "Japan"},
		positions:    []string{"Goalkeeper", "Defender", "Midfield", "Attack"},
	}
}
