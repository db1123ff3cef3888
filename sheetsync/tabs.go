package sheetsync

import (
	"regexp"
	"strings"
)

// Sheets caps tab titles at 100 characters.
const maxTabNameLength = 100

// ministerioTabs fixes the tab for ministries whose sheet name drifted from
// their catalog name over the years. Anything not listed here falls through
// to the sanitize transform.
var ministerioTabs = map[string]string{
	"Jefatura de Gabinete":            "Jefatura_Gabinete",
	"Ministerio de Salud":             "Salud",
	"Ministerio de Educación":         "Educación",
	"Ministerio de Seguridad":         "Seguridad",
	"Ministerio de Producción":        "Producción",
	"Ministerio de Infraestructura":   "Infraestructura",
	"Ministerio de Desarrollo Social": "Desarrollo_Social",
	"Ministerio de Hacienda":          "Hacienda",
}

var tabDisallowed = regexp.MustCompile(`[^0-9A-Za-zÁÉÍÓÚÜÑáéíóúüñ _]`)
var tabWhitespace = regexp.MustCompile(`\s+`)

// sanitizeTabName derives a tab name from an arbitrary ministry name: drop
// everything but letters (accented included), digits and spaces, collapse
// whitespace to underscores, and truncate to the tab title limit.
func sanitizeTabName(name string) string {
	cleaned := tabDisallowed.ReplaceAllString(strings.TrimSpace(name), "")
	cleaned = tabWhitespace.ReplaceAllString(strings.TrimSpace(cleaned), "_")
	runes := []rune(cleaned)
	if len(runes) > maxTabNameLength {
		cleaned = string(runes[:maxTabNameLength])
	}
	return cleaned
}

// ResolveTabName is total: every ministry name maps to some tab name, via
// the fixed table when known and the sanitize transform otherwise.
func ResolveTabName(ministerio string) string {
	if tab, ok := ministerioTabs[strings.TrimSpace(ministerio)]; ok {
		return tab
	}
	return sanitizeTabName(ministerio)
}
