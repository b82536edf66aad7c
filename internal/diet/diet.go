// Package diet reads diet tables and applies them to community models as
// lower bounds on the diet exchange reactions.
package diet

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"fluxpipe/internal/model"
)

// ExchangePrefix and Compartment form diet exchange ids: Diet_EX_<met>[d].
const (
	ExchangePrefix = "Diet_EX_"
	Compartment    = "[d]"
)

// Entry is one row of a diet table: the uptake flux allowed for a reaction.
type Entry struct {
	Reaction string
	Flux     float64
}

var exchangeRe = regexp.MustCompile(`^(?:Diet_)?EX_(.+?)(?:\[(?:e|u|d|fe)\]|\((?:e|u)\))?$`)

// Normalize maps exchange ids such as EX_glc(e), EX_glc[e], EX_glc[u] and
// Diet_EX_glc[d] to the diet compartment form Diet_EX_glc[d]. Ids that are not
// exchanges come back unchanged.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	mt := exchangeRe.FindStringSubmatch(id)
	if mt == nil {
		return id
	}
	return ExchangePrefix + mt[1] + Compartment
}

// Metabolite returns the metabolite part of a diet exchange id.
func Metabolite(id string) (string, bool) {
	if !strings.HasPrefix(id, ExchangePrefix) || !strings.HasSuffix(id, Compartment) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(id, ExchangePrefix), Compartment), true
}

// IsExchange reports whether id is a diet exchange reaction.
func IsExchange(id string) bool {
	_, ok := Metabolite(id)
	return ok
}

// Parse reads a tab, comma or whitespace separated table of reaction and
// flux. A first row whose second field is not a number is taken as a header.
// Lines starting with # and blank lines are skipped. Repeated reactions keep
// the last value.
func Parse(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	var out []Entry
	pos := make(map[string]int)
	line, rows := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := split(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("diet line %d: want reaction and flux, got %q", line, text)
		}
		rows++
		flux, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			if rows == 1 {
				continue
			}
			return nil, fmt.Errorf("diet line %d: flux %q: %w", line, fields[1], err)
		}
		if math.IsNaN(flux) {
			return nil, fmt.Errorf("diet line %d: flux is NaN", line)
		}
		id := Normalize(fields[0])
		if i, ok := pos[id]; ok {
			out[i].Flux = flux
			continue
		}
		pos[id] = len(out)
		out = append(out, Entry{Reaction: id, Flux: flux})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func split(line string) []string {
	switch {
	case strings.Contains(line, "\t"):
		return trimAll(strings.Split(line, "\t"))
	case strings.Contains(line, ","):
		return trimAll(strings.Split(line, ","))
	default:
		return strings.Fields(line)
	}
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load parses the diet table at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Apply closes every diet exchange of m, then opens each listed reaction to
// uptake its flux. Listed reactions that m lacks are returned, not applied.
func Apply(m *model.Model, entries []Entry) (missing []string) {
	for i := range m.Reactions {
		if IsExchange(m.Reactions[i].ID) {
			m.Reactions[i].Lower = 0
		}
	}
	for _, e := range entries {
		r, ok := m.Reaction(e.Reaction)
		if !ok {
			missing = append(missing, e.Reaction)
			continue
		}
		r.Lower = -e.Flux
		if r.Upper < r.Lower {
			r.Upper = r.Lower
		}
	}
	return missing
}

// Rich opens every diet exchange of m to uptake.
func Rich(m *model.Model, uptake float64) {
	for i := range m.Reactions {
		if IsExchange(m.Reactions[i].ID) {
			m.Reactions[i].Lower = -uptake
		}
	}
}
