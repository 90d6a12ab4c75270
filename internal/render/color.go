package render

// LanguageColor is the badge palette for a primary language. Values are
// Bootstrap contextual names ("primary", "warning", ...).
type LanguageColor struct {
	BG   string `json:"bg"`
	Text string `json:"text"`
}

// DefaultLanguageColor is used for unknown and missing languages
var DefaultLanguageColor = LanguageColor{BG: "secondary", Text: "white"}

var languageColors = map[string]LanguageColor{
	"JavaScript": {BG: "warning", Text: "dark"},
	"TypeScript": {BG: "primary", Text: "white"},
	"Python":     {BG: "info", Text: "white"},
	"Java":       {BG: "danger", Text: "white"},
	"PHP":        {BG: "primary", Text: "white"},
	"HTML":       {BG: "danger", Text: "white"},
	"CSS":        {BG: "info", Text: "white"},
	"Vue":        {BG: "success", Text: "white"},
	"React":      {BG: "info", Text: "white"},
	"Shell":      {BG: "secondary", Text: "white"},
	"Dockerfile": {BG: "primary", Text: "white"},
}

// LanguageColorFor looks up language by its exact GitHub name
func LanguageColorFor(language string) LanguageColor {
	if c, ok := languageColors[language]; ok {
		return c
	}
	return DefaultLanguageColor
}
