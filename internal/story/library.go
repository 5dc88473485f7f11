// Package story holds the curated story catalog: three recurring characters,
// each with a short series of adventures. The catalog is pure data; the
// prompt builder turns an entry into a generation request, and cmd/storygen
// pre-renders the results to audio offline.
package story

import (
	"fmt"
	"strings"

	"github.com/bluehawana/totoyai/internal/language"
)

// Story is one entry in a series.
type Story struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Features []string `json:"features,omitempty"`
	Lesson   string   `json:"lesson"`
}

// Series is a set of stories sharing a main character and theme.
type Series struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Character string  `json:"character"`
	Theme     string  `json:"theme"`
	Stories   []Story `json:"stories"`
}

var catalog = []Series{
	{
		ID:        "trex",
		Name:      "T-Rex Adventures",
		Character: "T-Rex the friendly dinosaur",
		Theme:     "Geography and Swedish cities",
		Stories: []Story{
			{
				ID:       "trex_stockholm",
				Title:    "T-Rex visits Stockholm",
				Location: "Stockholm",
				Features: []string{"Vasa Museum", "Gamla Stan", "Royal Palace"},
				Lesson:   "Learning about Swedish history and culture",
			},
			{
				ID:       "trex_gothenburg",
				Title:    "T-Rex in Gothenburg",
				Location: "Gothenburg",
				Features: []string{"Liseberg", "Harbor", "Fish Market"},
				Lesson:   "Exploring Sweden's second largest city",
			},
			{
				ID:       "trex_malmo",
				Title:    "T-Rex discovers Malmö",
				Location: "Malmö",
				Features: []string{"Turning Torso", "Öresund Bridge", "Malmöhus Castle"},
				Lesson:   "Understanding modern Swedish architecture",
			},
			{
				ID:       "trex_copenhagen",
				Title:    "T-Rex crosses to Copenhagen",
				Location: "Copenhagen",
				Features: []string{"Tivoli Gardens", "Little Mermaid", "Nyhavn"},
				Lesson:   "Learning about Denmark, Sweden's neighbor",
			},
		},
	},
	{
		ID:        "kanin",
		Name:      "Kanin and Friends",
		Character: "Kanin the clever rabbit",
		Theme:     "Friendship and problem-solving",
		Stories: []Story{
			{
				ID:       "kanin_forest",
				Title:    "Kanin in the Forest",
				Location: "Swedish forest",
				Features: []string{"Squirrel", "Hedgehog", "Owl"},
				Lesson:   "Teamwork and helping each other",
			},
			{
				ID:       "kanin_lake",
				Title:    "Kanin by the Lake",
				Location: "Beautiful Swedish lake",
				Features: []string{"Ducklings", "Frog", "Fish"},
				Lesson:   "Caring for those who are lost",
			},
			{
				ID:       "kanin_river",
				Title:    "Kanin at the River",
				Location: "Flowing river",
				Features: []string{"Beaver", "Otter", "Birds"},
				Lesson:   "Building things together",
			},
			{
				ID:       "kanin_sea",
				Title:    "Kanin's Beach Adventure",
				Location: "Swedish coastline",
				Features: []string{"Seagull", "Crab", "Seal"},
				Lesson:   "Exploring new places with friends",
			},
		},
	},
	{
		ID:        "delfin",
		Name:      "Delfin the Helper",
		Character: "Delfin the kind dolphin",
		Theme:     "Helping others and ocean life",
		Stories: []Story{
			{
				ID:       "delfin_fishermen",
				Title:    "Delfin helps the Fishermen",
				Location: "Gothenburg harbor",
				Lesson:   "Working together and being helpful",
			},
			{
				ID:       "delfin_rescue",
				Title:    "Delfin's Brave Rescue",
				Location: "Swedish west coast",
				Lesson:   "Being brave and helping in emergencies",
			},
			{
				ID:       "delfin_swimming",
				Title:    "Delfin teaches Swimming",
				Location: "Safe swimming area",
				Lesson:   "Learning to swim safely",
			},
			{
				ID:       "delfin_ocean",
				Title:    "Delfin cleans the Ocean",
				Location: "Swedish waters",
				Lesson:   "Taking care of our environment",
			},
		},
	},
}

// AllSeries returns the full catalog.
func AllSeries() []Series {
	return catalog
}

// SeriesByID looks up a series by its identifier.
func SeriesByID(id string) (*Series, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}

// Find looks up a single story within a series.
func Find(seriesID, storyID string) (*Series, *Story, bool) {
	series, ok := SeriesByID(seriesID)
	if !ok {
		return nil, nil, false
	}
	for i := range series.Stories {
		if series.Stories[i].ID == storyID {
			return series, &series.Stories[i], true
		}
	}
	return nil, nil, false
}

// Prompt builds the generation prompt for one story in the given language.
// Returns false when the series or story does not exist.
func Prompt(seriesID, storyID, lang string) (string, bool) {
	series, st, ok := Find(seriesID, storyID)
	if !ok {
		return "", false
	}

	if lang == language.Swedish {
		return fmt.Sprintf(`Skriv en rolig och lärorik barnberättelse (3-5 minuter lång) för barn 3-10 år.

Serie: %s
Huvudkaraktär: %s
Titel: %s
Plats: %s

Tema: %s
Läxa: %s

Inkludera:
- Enkelt, varmt språk för barn
- Spännande äventyr
- Positiv läxa
- Lyckligt slut

Berättelsen ska vara engagerande, fantasifull och lämplig för barn.`,
			series.Name, series.Character, st.Title, st.Location, series.Theme, st.Lesson), true
	}

	var extras string
	if len(st.Features) > 0 {
		extras = "\nFeatures: " + strings.Join(st.Features, ", ")
	}

	return fmt.Sprintf(`Write a fun and educational children's story (3-5 minutes long) for kids aged 3-10.

Series: %s
Main Character: %s
Title: %s
Location: %s%s

Theme: %s
Lesson: %s

Include:
- Simple, warm language for children
- Exciting adventure
- Positive lesson
- Happy ending

The story should be engaging, imaginative, and age-appropriate.`,
		series.Name, series.Character, st.Title, st.Location, extras, series.Theme, st.Lesson), true
}
