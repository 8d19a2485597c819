package domain

// Character is a fixed roster member users generate content for. The roster
// itself is configuration data; only uploaded image variants live in the
// database.
type Character struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Variants    []CharacterVariant
}

// CharacterVariant is a built-in alternate image for a character.
type CharacterVariant struct {
	ID  string
	URL string
}

// Track is a selectable music track for the result player.
type Track struct {
	ID    string
	Title string
	Src   string
	Cover string
}

const memberImageBaseURL = "https://dloarazwucxtwykqzfow.supabase.co/storage/v1/object/public/member-images"

// Characters is the fixed member roster.
var Characters = []Character{
	{
		ID:       "sumin",
		Name:     "Wednesday Off Sumin",
		ImageURL: memberImageBaseURL + "/sumin.png",
		Variants: []CharacterVariant{
			{ID: "default", URL: memberImageBaseURL + "/sumin.png"},
			{ID: "02", URL: memberImageBaseURL + "/sumin_02.png"},
		},
	},
	{
		ID:       "rumi",
		Name:     "Red Lotus Rumi",
		ImageURL: memberImageBaseURL + "/rumi.png",
		Variants: []CharacterVariant{
			{ID: "default", URL: memberImageBaseURL + "/rumi.png"},
			{ID: "02", URL: memberImageBaseURL + "/rumi_02.png"},
		},
	},
	{
		ID:       "geumbi",
		Name:     "Sky Castle Geumbi",
		ImageURL: memberImageBaseURL + "/geumbi.png",
		Variants: []CharacterVariant{
			{ID: "default", URL: memberImageBaseURL + "/geumbi.png"},
			{ID: "02", URL: memberImageBaseURL + "/geumbi_02.png"},
		},
	},
	{
		ID:       "jiyoon",
		Name:     "Jiyoon Gallagher",
		ImageURL: memberImageBaseURL + "/jiyoon.png",
		Variants: []CharacterVariant{
			{ID: "default", URL: memberImageBaseURL + "/jiyoon.png"},
			{ID: "02", URL: memberImageBaseURL + "/jiyoon_02.png"},
		},
	},
	{
		ID:       "lei",
		Name:     "Vivian Waitress Lei",
		ImageURL: memberImageBaseURL + "/lei.png",
		Variants: []CharacterVariant{
			{ID: "default", URL: memberImageBaseURL + "/lei.png"},
			{ID: "02", URL: memberImageBaseURL + "/lei_02.png"},
		},
	},
}

// Tracks is the fixed music catalog.
var Tracks = []Track{
	{ID: "1", Title: "Yum", Src: "/music/Yum.mp3", Cover: "/music/Yum.png"},
	{ID: "2", Title: "POP IT", Src: "/music/POP IT.mp3", Cover: "/music/POP IT.png"},
	{ID: "3", Title: "I'm lovin' it", Src: "/music/I'm lovin' it.mp3", Cover: "/music/I'm lovin' it.png"},
}

// CharacterByID returns the roster entry, or nil when unknown.
func CharacterByID(id string) *Character {
	for i := range Characters {
		if Characters[i].ID == id {
			return &Characters[i]
		}
	}
	return nil
}

// TrackByID returns the catalog track, or nil when unknown.
func TrackByID(id string) *Track {
	for i := range Tracks {
		if Tracks[i].ID == id {
			return &Tracks[i]
		}
	}
	return nil
}

// CharacterImageURL resolves a character image variant, falling back to the
// character's default image.
func CharacterImageURL(characterID, variantID string) string {
	c := CharacterByID(characterID)
	if c == nil {
		return ""
	}
	for _, v := range c.Variants {
		if v.ID == variantID {
			return v.URL
		}
	}
	return c.ImageURL
}
