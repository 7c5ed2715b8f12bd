package endoflife

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

// Source IDs.
const (
	DistroSourceID  = "endoflife-distro"
	RuntimeSourceID = "endoflife-runtime"
	GenericSourceID = "endoflife-generic"
)

// distroSlugs maps distribution keywords onto API product slugs.
var distroSlugs = map[string]string{
	"ubuntu":       "ubuntu",
	"debian":       "debian",
	"rhel":         "rhel",
	"red hat":      "rhel",
	"centos":       "centos",
	"rocky":        "rocky-linux",
	"almalinux":    "almalinux",
	"alma":         "almalinux",
	"sles":         "sles",
	"suse":         "sles",
	"opensuse":     "opensuse",
	"fedora":       "fedora",
	"alpine":       "alpine",
	"amazon linux": "amazon-linux",
	"oracle linux": "oracle-linux",
}

// runtimeSlugs maps runtime, database and server keywords onto API slugs.
var runtimeSlugs = map[string]string{
	"python":      "python",
	"node":        "nodejs",
	"nodejs":      "nodejs",
	"node.js":     "nodejs",
	"java":        "oracle-jdk",
	"jdk":         "oracle-jdk",
	"jre":         "oracle-jdk",
	"openjdk":     "openjdk-builds-from-oracle",
	"dotnet":      "dotnet",
	"net runtime": "dotnet",
	"net core":    "dotnet",
	"go":          "go",
	"golang":      "go",
	"php":         "php",
	"ruby":        "ruby",
	"perl":        "perl",
	"postgresql":  "postgresql",
	"mysql":       "mysql",
	"mariadb":     "mariadb",
	"redis":       "redis",
	"mongodb":     "mongodb",
	"nginx":       "nginx",
	"apache":      "apache-http-server",
}

// genericAliases maps whole product names whose slug cannot be guessed.
var genericAliases = map[string]string{
	"microsoft sql server": "mssqlserver",
	"visual studio code":   "vscode",
	"google chrome":        "chrome",
	"mozilla firefox":      "firefox",
	"microsoft edge":       "edge",
}

// versionPattern finds the first dotted-numeric run in a string.
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)*`)

// Confidences reported per match kind.
type confidence struct {
	exact float64
	major float64
}

// Source resolves variants against endoflife.date.
type Source struct {
	id       string
	affinity driven.SourceAffinity
	client   *Client
	slugs    map[string]string
	keywords []string
	conf     confidence
	now      func() time.Time
}

// Ensure Source implements the interface.
var _ driven.LookupSource = (*Source)(nil)

// NewDistroSource creates the Linux distribution source.
func NewDistroSource(client *Client) *Source {
	return newKeywordSource(DistroSourceID, client, distroSlugs, confidence{exact: 0.95, major: 0.85})
}

// NewRuntimeSource creates the runtime, database and web server source.
func NewRuntimeSource(client *Client) *Source {
	return newKeywordSource(RuntimeSourceID, client, runtimeSlugs, confidence{exact: 0.92, major: 0.85})
}

// NewGenericSource creates a fallback source that guesses slugs from names.
func NewGenericSource(client *Client) *Source {
	return &Source{
		id:     GenericSourceID,
		client: client,
		conf:   confidence{exact: 0.85, major: 0.70},
		now:    time.Now,
	}
}

func newKeywordSource(id string, client *Client, slugs map[string]string, conf confidence) *Source {
	keywords := make([]string, 0, len(slugs))
	for kw := range slugs {
		keywords = append(keywords, kw)
	}
	// Longest first so "amazon linux" wins over shorter keywords.
	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}
		return keywords[i] < keywords[j]
	})

	return &Source{
		id:       id,
		affinity: driven.SourceAffinity{Specific: true, Keywords: keywords},
		client:   client,
		slugs:    slugs,
		keywords: keywords,
		conf:     conf,
		now:      time.Now,
	}
}

// ID returns the source identifier.
func (s *Source) ID() string { return s.id }

// Affinity returns the routing declaration.
func (s *Source) Affinity() driven.SourceAffinity { return s.affinity }

// Lookup resolves a variant. Products the API does not know, and versions
// matching no cycle, are reported as not found.
func (s *Source) Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error) {
	name := words(v.Name)
	version := firstVersion(v.Version)
	if version == "" {
		version = versionFromName(name)
	}
	if name == "" || version == "" {
		return domain.NotFound(s.id), nil
	}

	for _, slug := range s.candidates(name) {
		cycles, err := s.client.Cycles(ctx, slug)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return domain.NotFound(s.id), err
		}

		cycle, kind := matchCycle(cycles, version)
		if kind == matchNone {
			continue
		}
		return s.result(cycle, kind), nil
	}
	return domain.NotFound(s.id), nil
}

func (s *Source) result(c Cycle, kind matchKind) domain.LookupResult {
	res := domain.LookupResult{
		Found:         true,
		Cycle:         string(c.Name),
		LatestVersion: string(c.Latest),
		IsLTS:         c.LTS.Reached(s.now()),
		Confidence:    s.conf.major,
		SourceID:      s.id,
	}
	if kind == matchExact {
		res.Confidence = s.conf.exact
	}
	if c.EOL.Date != nil {
		res.EOLDate = domain.Date(*c.EOL.Date)
	}
	return res
}

// candidates lists product slugs to try for a cleaned name, best first.
func (s *Source) candidates(name string) []string {
	if s.slugs != nil {
		padded := " " + name + " "
		for _, kw := range s.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return []string{s.slugs[kw]}
			}
		}
		return nil
	}
	return guessSlugs(name)
}

// guessSlugs derives API slugs from a product name for the generic source.
func guessSlugs(name string) []string {
	var tokens []string
	for _, t := range strings.Fields(name) {
		if !versionPattern.MatchString(t) || strings.Trim(t, "0123456789.") != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(slug string) {
		slug = strings.Trim(slug, "-.")
		if slug != "" && !seen[slug] {
			seen[slug] = true
			out = append(out, slug)
		}
	}

	joined := strings.Join(tokens, " ")
	if alias, ok := genericAliases[joined]; ok {
		add(alias)
	}
	add(strings.Join(tokens, "-"))
	add(tokens[len(tokens)-1])
	add(tokens[0])
	return out
}

// words lower-cases a name and reduces it to space-separated tokens of
// letters, digits, dots and pluses.
func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '+'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

func firstVersion(s string) string {
	return versionPattern.FindString(s)
}

// versionFromName returns the first purely numeric token after the product
// word, as in "python 3.8".
func versionFromName(name string) string {
	fields := strings.Fields(name)
	for i := 1; i < len(fields); i++ {
		if strings.Trim(fields[i], "0123456789.") == "" && versionPattern.MatchString(fields[i]) {
			return fields[i]
		}
	}
	return ""
}
