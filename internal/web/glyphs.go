package web

// Display glyphs for well-known field names. Decoration only: they appear in
// the search read projection and never in the CSV export.
var fieldGlyphs = map[string]string{
	"Email":    "🛧",
	"Phone":    "📞",
	"FullName": "👤",
	"NickName": "🆔",
	"Gender":   "⚧",
	"Address":  "🏠",
	"City":     "🏢️",
	"Location": "📍",
	"Date":     "📅",
	"Price":    "💵",
	"Company":  "🏦",
}

const defaultGlyph = "👤"

// glyphFor returns the display glyph for a field name.
func glyphFor(name string) string {
	if g, ok := fieldGlyphs[name]; ok {
		return g
	}
	return defaultGlyph
}
