package importer

import (
	"strings"

	"github.com/openedu-vn/school-admin-api/internal/models"
)

// subjectSynonyms is the fixed dictionary of common Vietnamese subject
// synonyms, including accent-stripped spellings and English course names.
// Entries expand bidirectionally: when any alias of an entry matches a
// catalog subject by substring (either direction), every alias of that entry
// plus the key itself becomes a lookup key for that subject.
var subjectSynonyms = map[string][]string{
	"toán":       {"toan", "math", "mathematics", "toán học"},
	"ngữ văn":    {"văn", "van", "ngu van", "literature"},
	"tiếng việt": {"tieng viet", "vietnamese"},
	"tiếng anh":  {"tieng anh", "anh văn", "anh van", "english"},
	"vật lý":     {"vat ly", "lý", "physics"},
	"hóa học":    {"hoa hoc", "hóa", "hoa", "chemistry"},
	"sinh học":   {"sinh hoc", "sinh", "biology"},
	"lịch sử":    {"lich su", "sử", "history"},
	"địa lý":     {"dia ly", "địa", "geography"},
	"tin học":    {"tin hoc", "tin", "informatics"},
	"thể dục":    {"the duc", "thể chất", "physical education", "pe"},
	"âm nhạc":    {"am nhac", "nhạc", "music"},
	"mỹ thuật":   {"my thuat", "vẽ", "art"},
	"công nghệ":  {"cong nghe", "technology"},
	"đạo đức":    {"dao duc", "gdcd", "giáo dục công dân", "civics"},
}

// fillerWords are dropped when deriving mechanical name variants.
var fillerWords = map[string]struct{}{
	"học":   {},
	"môn":   {},
	"tiếng": {},
	"khoa":  {},
}

// SubjectMatcher resolves free-text subject names to catalog ids using an
// ordered list of strategies, each tried in turn with early exit: exact name,
// exact alias, substring containment over alias keys, token overlap, and a
// final case-insensitive scan of the catalog. No scoring happens across
// strategies.
type SubjectMatcher struct {
	exact    map[string]string
	aliases  map[string]string
	subjects []models.Subject
}

// NewSubjectMatcher builds the lookup tables from the subject catalog.
func NewSubjectMatcher(subjects []models.Subject) *SubjectMatcher {
	m := &SubjectMatcher{
		exact:    make(map[string]string, len(subjects)),
		aliases:  make(map[string]string),
		subjects: subjects,
	}

	for _, s := range subjects {
		m.exact[s.Name] = s.ID
		norm := normalize(s.Name)
		if norm == "" {
			continue
		}
		m.addAlias(norm, s.ID)
		for _, variant := range nameVariants(norm) {
			m.addAlias(variant, s.ID)
		}
		m.expandSynonyms(norm, s.ID)
	}

	return m
}

// addAlias registers a key without clobbering an earlier claim, so the first
// subject to produce an alias keeps it.
func (m *SubjectMatcher) addAlias(key, id string) {
	if key == "" {
		return
	}
	if _, taken := m.aliases[key]; !taken {
		m.aliases[key] = id
	}
}

func (m *SubjectMatcher) expandSynonyms(norm, id string) {
	for key, syns := range subjectSynonyms {
		candidates := append([]string{key}, syns...)
		matched := false
		for _, c := range candidates {
			if strings.Contains(norm, c) || strings.Contains(c, norm) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, c := range candidates {
			m.addAlias(c, id)
		}
	}
}

// Resolve maps a raw subject string to a catalog id, or "" when nothing
// matches. A miss is a data condition, not an error.
func (m *SubjectMatcher) Resolve(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if id, ok := m.exact[trimmed]; ok {
		return id
	}

	norm := normalize(trimmed)
	if id, ok := m.aliases[norm]; ok {
		return id
	}

	if id := m.bySubstring(norm); id != "" {
		return id
	}
	if id := m.byTokenOverlap(norm); id != "" {
		return id
	}
	return m.byFullScan(trimmed)
}

func (m *SubjectMatcher) bySubstring(norm string) string {
	for key, id := range m.aliases {
		if strings.Contains(norm, key) || strings.Contains(key, norm) {
			return id
		}
	}
	return ""
}

// byTokenOverlap matches when any word longer than two characters is shared,
// counting substring containment between words as sharing.
func (m *SubjectMatcher) byTokenOverlap(norm string) string {
	words := significantWords(norm)
	if len(words) == 0 {
		return ""
	}
	for key, id := range m.aliases {
		for _, kw := range significantWords(key) {
			for _, w := range words {
				if strings.Contains(w, kw) || strings.Contains(kw, w) {
					return id
				}
			}
		}
	}
	return ""
}

func (m *SubjectMatcher) byFullScan(raw string) string {
	for _, s := range m.subjects {
		if strings.EqualFold(strings.TrimSpace(s.Name), raw) {
			return s.ID
		}
	}
	return ""
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// nameVariants derives mechanical lookup keys from a normalized name: the
// no-space form and the form with filler words removed.
func nameVariants(norm string) []string {
	var variants []string

	noSpace := strings.ReplaceAll(norm, " ", "")
	if noSpace != norm {
		variants = append(variants, noSpace)
	}

	var kept []string
	for _, w := range strings.Fields(norm) {
		if _, filler := fillerWords[w]; !filler {
			kept = append(kept, w)
		}
	}
	if len(kept) > 0 && len(kept) < len(strings.Fields(norm)) {
		stripped := strings.Join(kept, " ")
		variants = append(variants, stripped, strings.ReplaceAll(stripped, " ", ""))
	}

	return variants
}

func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	return words
}
