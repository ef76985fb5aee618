package skills

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// DefaultVocabulary is the built-in list of skills recognized by the keyword scan.
var DefaultVocabulary = []string{
	"go", "python", "java", "javascript", "typescript", "c++", "c#", "rust", "ruby", "php",
	"kotlin", "swift", "scala", "sql", "bash",
	"react", "angular", "vue", "node.js", "django", "flask", "spring", "graphql", "grpc", "rest api",
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "kafka", "rabbitmq",
	"docker", "kubernetes", "terraform", "ansible", "helm", "linux", "git", "ci/cd",
	"aws", "azure", "google cloud",
	"machine learning", "deep learning", "nlp", "pandas", "numpy", "tensorflow", "pytorch",
	"microservices", "distributed systems", "prometheus", "grafana",
}

// Vocabulary holds the skills the keyword scan can find.
type Vocabulary struct {
	skills   []string
	patterns map[string]*regexp.Regexp
	// alias pattern -> canonical skill, only for canonical skills in the vocabulary
	aliases map[*regexp.Regexp]string
}

// NewVocabulary builds a vocabulary from normalized, de-duplicated names.
func NewVocabulary(names ...string) *Vocabulary {
	set := NewSet(names...)
	v := &Vocabulary{
		skills:   set.Sorted(),
		patterns: make(map[string]*regexp.Regexp, len(set)),
		aliases:  make(map[*regexp.Regexp]string),
	}
	for _, skill := range v.skills {
		v.patterns[skill] = compile(skill)
	}
	for alias, canonical := range aliases {
		if _, known := v.patterns[canonical]; known {
			v.aliases[compile(alias)] = canonical
		}
	}
	return v
}

// Default returns the built-in vocabulary extended with extra names.
func Default(extra ...string) *Vocabulary {
	names := append([]string{}, DefaultVocabulary...)
	return NewVocabulary(append(names, extra...)...)
}

// LoadFile reads one skill per line; blank lines and lines starting with '#' are ignored.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary file: %w", err)
	}
	defer f.Close()

	return parse(f)
}

func parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	return names, nil
}

// Skills returns the vocabulary in lexical order.
func (v *Vocabulary) Skills() []string {
	return append([]string(nil), v.skills...)
}

// Scan returns every vocabulary skill mentioned in text, plus the skills
// reached through an alias (e.g. "golang", "k8s").
func (v *Vocabulary) Scan(text string) Set {
	found := make(Set)
	if v == nil || strings.TrimSpace(text) == "" {
		return found
	}
	lower := strings.ToLower(text)

	for _, skill := range v.skills {
		if v.patterns[skill].MatchString(lower) {
			found[skill] = struct{}{}
		}
	}

	for pattern, canonical := range v.aliases {
		if found.Has(canonical) {
			continue
		}
		if pattern.MatchString(lower) {
			found[canonical] = struct{}{}
		}
	}

	return found
}

// compile matches term as a whole token: symbols such as "c++", "c#" and
// "node.js" are kept intact and "go" does not match inside "google".
func compile(term string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(term)
	quoted = strings.ReplaceAll(quoted, " ", `\s+`)
	return regexp.MustCompile(`(?:^|[^a-z0-9+#.])` + quoted + `(?:$|[^a-z0-9+#]|\.(?:$|[^a-z0-9]))`)
}
