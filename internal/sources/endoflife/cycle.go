package endoflife

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const dateLayout = "2006-01-02"

// Cycle is one release cycle of a product as returned by the API.
type Cycle struct {
	Name        flexString `json:"cycle"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	EOL         Milestone  `json:"eol"`
	LTS         Milestone  `json:"lts"`
	Latest      flexString `json:"latest,omitempty"`
}

// Milestone is an API field holding either a boolean or a date.
type Milestone struct {
	Flag bool
	Date *time.Time
}

// UnmarshalJSON accepts true, false, null or "YYYY-MM-DD".
func (m *Milestone) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "false":
		*m = Milestone{}
		return nil
	case "true":
		*m = Milestone{Flag: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("milestone: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("milestone %q: %w", s, err)
	}
	*m = Milestone{Date: &t}
	return nil
}

// Reached reports whether the milestone has passed at now.
func (m Milestone) Reached(now time.Time) bool {
	if m.Date != nil {
		return !now.Before(*m.Date)
	}
	return m.Flag
}

// flexString decodes JSON strings and numbers alike. Older API entries
// carry numeric cycles such as 3.9.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// matchKind says how a version matched a cycle.
type matchKind int

const (
	matchNone matchKind = iota
	matchMajor
	matchExact
)

// matchCycle picks the cycle for version. A cycle equal to the version, or
// a dotted prefix of it, is an exact match; the longest such cycle wins.
// Otherwise the newest cycle sharing the major version is a major match.
func matchCycle(cycles []Cycle, version string) (Cycle, matchKind) {
	version = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
	if version == "" {
		return Cycle{}, matchNone
	}

	var best Cycle
	bestLen := 0
	for _, c := range cycles {
		name := strings.ToLower(string(c.Name))
		if name == "" {
			continue
		}
		if (version == name || strings.HasPrefix(version, name+".")) && len(name) > bestLen {
			best, bestLen = c, len(name)
		}
	}
	if bestLen > 0 {
		return best, matchExact
	}

	major, ok := majorOf(version)
	if !ok {
		return Cycle{}, matchNone
	}
	var sameMajor []Cycle
	for _, c := range cycles {
		if m, ok := majorOf(string(c.Name)); ok && m == major {
			sameMajor = append(sameMajor, c)
		}
	}
	if len(sameMajor) == 0 {
		return Cycle{}, matchNone
	}
	sortNewestFirst(sameMajor)
	return sameMajor[0], matchMajor
}

// majorOf returns the major component of a version or cycle name.
func majorOf(s string) (uint64, bool) {
	if v, err := semver.NewVersion(s); err == nil {
		return v.Major(), true
	}
	head, _, _ := strings.Cut(s, ".")
	n, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sortNewestFirst orders cycles by descending version. Cycles that do not
// parse as versions keep their API order after the ones that do.
func sortNewestFirst(cycles []Cycle) {
	sort.SliceStable(cycles, func(i, j int) bool {
		vi, erri := semver.NewVersion(string(cycles[i].Name))
		vj, errj := semver.NewVersion(string(cycles[j].Name))
		switch {
		case erri != nil:
			return false
		case errj != nil:
			return true
		default:
			return vi.GreaterThan(vj)
		}
	})
}
