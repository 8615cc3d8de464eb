// Package details holds the offline texts shipped with the binary: a summary
// and verse range for every weekly Torah reading, and a description for the
// holidays the engine reports. Lookups accept the names exactly as the engine
// emits them.
package details

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"yomtov/internal/model"
)

//go:embed data/parshiot.yaml
var parshiotYAML []byte

//go:embed data/holidays.yaml
var holidaysYAML []byte

type parshiotFile struct {
	Names    map[string][]string `yaml:"names"`
	Parshiot map[string]struct {
		English string `yaml:"english"`
		Hebrew  string `yaml:"hebrew"`
		Verses  string `yaml:"verses"`
		Blurb   string `yaml:"blurb"`
	} `yaml:"parshiot"`
}

// Holiday is one entry of the holiday table.
type Holiday struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Aliases     []string `yaml:"aliases"`
}

// Catalog answers parasha and holiday lookups. It is read-only after Load
// and safe for concurrent use.
type Catalog struct {
	names    map[string][]string
	readings map[string]model.Reading
	holidays map[string]*Holiday
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
	builtinErr  error
)

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = Load(parshiotYAML, holidaysYAML)
	})
	return builtin, builtinErr
}

// Load parses a parasha table and a holiday table. Every name must point at
// known readings and no two holidays may claim the same title or alias.
func Load(parshiot, holidays []byte) (*Catalog, error) {
	var pf parshiotFile
	if err := yaml.Unmarshal(parshiot, &pf); err != nil {
		return nil, fmt.Errorf("details: parse parshiot: %w", err)
	}
	var hf []*Holiday
	if err := yaml.Unmarshal(holidays, &hf); err != nil {
		return nil, fmt.Errorf("details: parse holidays: %w", err)
	}

	c := &Catalog{
		names:    make(map[string][]string, len(pf.Names)),
		readings: make(map[string]model.Reading, len(pf.Parshiot)),
		holidays: make(map[string]*Holiday, len(hf)*2),
	}
	for key, p := range pf.Parshiot {
		c.readings[key] = model.Reading{
			Key:     key,
			English: p.English,
			Hebrew:  p.Hebrew,
			Verses:  p.Verses,
			Blurb:   p.Blurb,
		}
	}
	for name, keys := range pf.Names {
		for _, k := range keys {
			if _, ok := c.readings[k]; !ok {
				return nil, fmt.Errorf("details: parasha %q refers to unknown reading %q", name, k)
			}
		}
		c.names[foldParsha(name)] = keys
	}

	for _, h := range hf {
		if h.Title == "" {
			return nil, errors.New("details: holiday without a title")
		}
		for _, name := range append([]string{h.Title}, h.Aliases...) {
			k := foldQuotes(name)
			if prev, dup := c.holidays[k]; dup && prev != h {
				return nil, fmt.Errorf("details: %q is listed under both %q and %q", name, prev.Title, h.Title)
			}
			c.holidays[k] = h
		}
	}
	return c, nil
}

var (
	parashaPrefix = regexp.MustCompile(`(?i)^parasha(t)?\s+`)
	spaces        = regexp.MustCompile(`\s+`)
	hyphenSpacing = regexp.MustCompile(`\s*-\s*`)
)

var quoteFolder = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

func foldQuotes(s string) string {
	return strings.TrimSpace(quoteFolder.Replace(s))
}

// foldParsha lower-cases a reading name and unifies its quotes, dashes and
// spacing: "Parashat Achrei Mot – Kedoshim" and "achrei mot-kedoshim" fold
// to the same string.
func foldParsha(name string) string {
	s := parashaPrefix.ReplaceAllString(foldQuotes(name), "")
	s = strings.NewReplacer("–", "-", "—", "-").Replace(s)
	s = hyphenSpacing.ReplaceAllString(s, "-")
	s = spaces.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

func slug(folded string) string {
	s := strings.ReplaceAll(folded, "'", "")
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Parsha returns the readings of a weekly parasha, two for a double one, or
// nil when the name is unknown. The engine's "Parashat " prefix is optional.
func (c *Catalog) Parsha(name string) []model.Reading {
	if c == nil {
		return nil
	}
	folded := foldParsha(name)
	if folded == "" {
		return nil
	}
	if keys, ok := c.names[folded]; ok {
		return c.collect(keys)
	}
	if r, ok := c.readings[slug(folded)]; ok {
		return []model.Reading{r}
	}

	// A double reading not listed under its combined name.
	halves := strings.Split(folded, "-")
	if len(halves) != 2 {
		return nil
	}
	var out []model.Reading
	for _, half := range halves {
		part := c.Parsha(half)
		if len(part) != 1 {
			return nil
		}
		out = append(out, part[0])
	}
	return out
}

func (c *Catalog) collect(keys []string) []model.Reading {
	out := make([]model.Reading, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.readings[k])
	}
	return out
}

var (
	erevPrefix    = regexp.MustCompile(`(?i)^erev\s+`)
	candleSuffix  = regexp.MustCompile(`:\s*\d+.*$`)
	yearSuffix    = regexp.MustCompile(`\s+\d{4}$`)
	dayNumeral    = regexp.MustCompile(`\s+\b(VIII|VII|VI|IV|V|III|II|I)\b`)
	parenthetical = regexp.MustCompile(`\s*\([^()]*\)`)
)

// baseHolidayName removes the engine's per-day modifiers:
//
//	"Erev Pesach"        -> "Pesach"
//	"Chanukah: 6 Candles" -> "Chanukah"
//	"Rosh Hashana 5785"  -> "Rosh Hashana"
//	"Pesach III (CH''M)" -> "Pesach"
func baseHolidayName(title string) string {
	s := strings.TrimSpace(title)
	s = erevPrefix.ReplaceAllString(s, "")
	s = candleSuffix.ReplaceAllString(s, "")
	s = yearSuffix.ReplaceAllString(s, "")
	if loc := dayNumeral.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + s[loc[1]:]
	}
	for {
		next := parenthetical.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	return foldQuotes(s)
}

// Holiday finds the entry for an engine holiday title, trying the title as
// given before stripping its modifiers.
func (c *Catalog) Holiday(title string) (*Holiday, bool) {
	if c == nil || strings.TrimSpace(title) == "" {
		return nil, false
	}
	if h, ok := c.holidays[foldQuotes(title)]; ok {
		return h, true
	}
	if h, ok := c.holidays[baseHolidayName(title)]; ok {
		return h, true
	}
	return nil, false
}

// HolidayDescription is Holiday reduced to its description; "" when the
// title is unknown.
func (c *Catalog) HolidayDescription(title string) string {
	if h, ok := c.Holiday(title); ok {
		return h.Description
	}
	return ""
}
