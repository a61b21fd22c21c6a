// Package topics classifies note text into domain tags.
//
// Two classifiers coexist: a learned Classifier that grows its category
// registry from bracket tags observed in the note log, and a static
// layered keyword Mapping (mapping.go) that needs no history.
package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Category is one node of the learned classification tree.
type Category struct {
	Name     string
	Keywords map[string]bool
	Count    int
	Parent   string
	Children []string
}

type categoryJSON struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
}

func (c *Category) toJSON() categoryJSON {
	kws := make([]string, 0, len(c.Keywords))
	for kw := range c.Keywords {
		kws = append(kws, kw)
	}
	sort.Strings(kws)
	return categoryJSON{
		Name:     c.Name,
		Keywords: kws,
		Count:    c.Count,
		Parent:   c.Parent,
		Children: c.Children,
	}
}

func fromJSON(j categoryJSON) *Category {
	kws := make(map[string]bool, len(j.Keywords))
	for _, kw := range j.Keywords {
		kws[kw] = true
	}
	return &Category{
		Name:     j.Name,
		Keywords: kws,
		Count:    j.Count,
		Parent:   j.Parent,
		Children: j.Children,
	}
}

// MergeSuggestion pairs two categories whose keyword sets overlap.
type MergeSuggestion struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// seedCategories bootstrap the registry before anything is learned.
var seedCategories = map[string][]string{
	"Theory":       {"framework", "theory", "model", "公式", "理論", "原理"},
	"System":       {"api", "config", "key", "token", "配置", "設定", "金鑰", "系統"},
	"Deployment":   {"deploy", "website", "host", "部署", "網站"},
	"Project":      {"commit", "branch", "repository", "專案", "項目", "計畫"},
	"User_Profile": {"偏好", "喜歡", "身份", "用戶", "preferences"},
	"General_Chat": {"天氣", "早安", "晚安", "閒聊", "哈哈", "謝謝"},
}

// tagPattern matches inline category tags like [Tech_Config].
var tagPattern = regexp.MustCompile(`\[([A-Za-z_]+)\]`)

// wordPattern splits content into Han runs and ASCII letter runs for
// keyword learning.
var wordPattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+|[a-zA-Z]+`)

var stopWords = map[string]bool{
	"的": true, "是": true, "在": true, "有": true, "和": true,
	"了": true, "與": true, "對": true, "到": true, "為": true,
	"the": true, "a": true, "is": true, "of": true, "to": true, "and": true,
}

// Classifier learns categories from bracket tags in the note log and
// answers which categories best match a query.
type Classifier struct {
	cachePath  string
	categories map[string]*Category
}

// NewClassifier creates a classifier seeded with the default categories.
// cachePath is the JSON category cache; pass "" to disable persistence.
func NewClassifier(cachePath string) *Classifier {
	c := &Classifier{
		cachePath:  cachePath,
		categories: make(map[string]*Category),
	}
	for name, kws := range seedCategories {
		set := make(map[string]bool, len(kws))
		for _, kw := range kws {
			set[kw] = true
		}
		c.categories[name] = &Category{Name: name, Keywords: set}
	}
	return c
}

// LearnFromLog scans the note log for bracket tags and updates the
// registry, creating categories the first time an unseen tag appears.
// With force false a valid cache short-circuits the scan. Returns the
// number of tagged entries observed.
func (c *Classifier) LearnFromLog(logPath string, force bool) (int, error) {
	if !force && c.loadCache() {
		total := 0
		for _, cat := range c.categories {
			total += cat.Count
		}
		return total, nil
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read note log: %w", err)
	}

	items := 0
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
			continue
		}
		found := false
		for _, m := range tagPattern.FindAllStringSubmatch(line, -1) {
			// Single letters are priority prefixes, not categories.
			if len(m[1]) == 1 {
				continue
			}
			c.upsert(m[1], line)
			found = true
		}
		if found {
			items++
		}
	}

	if err := c.save(); err != nil {
		return items, err
	}
	return items, nil
}

// upsert bumps an existing category's count or creates a new one with
// keywords extracted from the line it first appeared on. All dynamic
// category creation funnels through here.
func (c *Classifier) upsert(tag, line string) {
	if cat, ok := c.categories[tag]; ok {
		cat.Count++
		return
	}
	c.categories[tag] = &Category{
		Name:     tag,
		Keywords: extractKeywords(line),
		Count:    1,
	}
}

// SelectForQuery returns up to five category names ranked by keyword
// overlap ratio plus a small frequency bonus.
func (c *Classifier) SelectForQuery(query string) []string {
	lower := strings.ToLower(query)

	type scored struct {
		name  string
		score float64
	}
	var scores []scored

	for name, cat := range c.categories {
		matches := 0
		for kw := range cat.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		n := len(cat.Keywords)
		if n == 0 {
			n = 1
		}
		score := float64(matches) / float64(n)
		bonus := float64(cat.Count) / 10
		if bonus > 0.2 {
			bonus = 0.2
		}
		scores = append(scores, scored{name, score + bonus})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].name < scores[j].name
	})

	names := make([]string, 0, 5)
	for _, s := range scores {
		names = append(names, s.name)
		if len(names) == 5 {
			break
		}
	}
	return names
}

// AddCategory registers a new category under an optional parent.
// Existing categories are left untouched.
func (c *Classifier) AddCategory(name string, keywords []string, parent string) error {
	if _, ok := c.categories[name]; ok {
		return nil
	}
	set := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		set[kw] = true
	}
	c.categories[name] = &Category{Name: name, Keywords: set, Parent: parent}
	if p, ok := c.categories[parent]; ok {
		p.Children = append(p.Children, name)
	}
	return c.save()
}

// Merge folds source into target: keyword sets are unioned, counts
// summed, children re-parented, and source deleted.
func (c *Classifier) Merge(source, target string) error {
	src, ok := c.categories[source]
	if !ok {
		return fmt.Errorf("unknown category %q", source)
	}
	tgt, ok := c.categories[target]
	if !ok {
		return fmt.Errorf("unknown category %q", target)
	}

	for kw := range src.Keywords {
		tgt.Keywords[kw] = true
	}
	tgt.Count += src.Count

	for _, child := range src.Children {
		if ch, ok := c.categories[child]; ok {
			ch.Parent = target
			tgt.Children = append(tgt.Children, child)
		}
	}

	delete(c.categories, source)
	return c.save()
}

// SuggestMerges reports category pairs whose keyword Jaccard similarity
// meets the threshold, sorted descending.
func (c *Classifier) SuggestMerges(threshold float64) []MergeSuggestion {
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []MergeSuggestion
	for i, a := range names {
		for _, b := range names[i+1:] {
			ka, kb := c.categories[a].Keywords, c.categories[b].Keywords
			if len(ka) == 0 || len(kb) == 0 {
				continue
			}
			inter := 0
			for kw := range ka {
				if kb[kw] {
					inter++
				}
			}
			union := len(ka) + len(kb) - inter
			sim := float64(inter) / float64(union)
			if sim >= threshold {
				out = append(out, MergeSuggestion{A: a, B: b, Similarity: sim})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

// Categories returns all categories sorted by name.
func (c *Classifier) Categories() []*Category {
	out := make([]*Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a category by name.
func (c *Classifier) Get(name string) (*Category, bool) {
	cat, ok := c.categories[name]
	return cat, ok
}

func extractKeywords(content string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(content, -1) {
		if stopWords[strings.ToLower(w)] || len([]rune(w)) < 2 {
			continue
		}
		out[w] = true
	}
	return out
}

type categoryCache struct {
	Categories map[string]categoryJSON `json:"categories"`
}

// loadCache restores the registry from the JSON cache. A missing or
// corrupt cache returns false so the caller rebuilds from the log.
func (c *Classifier) loadCache() bool {
	if c.cachePath == "" {
		return false
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return false
	}
	var cache categoryCache
	if err := json.Unmarshal(data, &cache); err != nil || len(cache.Categories) == 0 {
		return false
	}
	c.categories = make(map[string]*Category, len(cache.Categories))
	for name, j := range cache.Categories {
		c.categories[name] = fromJSON(j)
	}
	return true
}

func (c *Classifier) save() error {
	if c.cachePath == "" {
		return nil
	}
	cache := categoryCache{Categories: make(map[string]categoryJSON, len(c.categories))}
	for name, cat := range c.categories {
		cache.Categories[name] = cat.toJSON()
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("write category cache: %w", err)
	}
	return nil
}
