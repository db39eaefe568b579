package stations

import (
	"strings"
)

// Station is a canonical station record shared by the extractor and the
// claim form builder.
type Station struct {
	Code    string
	Name    string
	Aliases []string
}

var table = []Station{
	{Code: "GBSPX", Name: "London St Pancras", Aliases: []string{"st pancras", "london st pancras international", "st pancras international", "london st. pancras", "london"}},
	{Code: "GBEBF", Name: "Ebbsfleet International", Aliases: []string{"ebbsfleet"}},
	{Code: "GBASI", Name: "Ashford International", Aliases: []string{"ashford"}},
	{Code: "FRPNO", Name: "Paris Gare du Nord", Aliases: []string{"paris nord", "gare du nord", "paris", "paris-nord"}},
	{Code: "FRLLE", Name: "Lille Europe", Aliases: []string{"lille"}},
	{Code: "FRMLV", Name: "Marne-la-Vallee Chessy", Aliases: []string{"disneyland paris", "marne la vallee", "marne-la-vallée chessy"}},
	{Code: "BEBMI", Name: "Brussels Midi", Aliases: []string{"brussels", "bruxelles midi", "brussel zuid", "brussels south", "bruxelles-midi"}},
	{Code: "NLAMA", Name: "Amsterdam Centraal", Aliases: []string{"amsterdam", "amsterdam central"}},
	{Code: "NLRTD", Name: "Rotterdam Centraal", Aliases: []string{"rotterdam", "rotterdam central"}},
	{Code: "DECGN", Name: "Cologne Hbf", Aliases: []string{"cologne", "koln hbf", "köln hbf"}},
}

var (
	byAlias = map[string]Station{}
	byCode  = map[string]Station{}
)

func init() {
	for _, s := range table {
		byCode[s.Code] = s
		byAlias[normalizeKey(s.Name)] = s
		for _, a := range s.Aliases {
			byAlias[normalizeKey(a)] = s
		}
	}
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Canonicalize maps a free-text station name to its canonical name. Unknown
// names are returned trimmed.
func Canonicalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if s, ok := byAlias[normalizeKey(trimmed)]; ok {
		return s.Name
	}
	return trimmed
}

// DisplayName projects a station code to its display name. Codes or names
// that are not in the table pass through unchanged.
func DisplayName(code string) string {
	if s, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s.Name
	}
	return code
}

// Lookup returns the station for a code, if known.
func Lookup(code string) (Station, bool) {
	s, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}
