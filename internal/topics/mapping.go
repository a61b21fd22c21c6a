package topics

import (
	"sort"
	"strings"

	"github.com/cwhuang/recall/internal/model"
)

// Entry maps a trigger keyword to a weight and the tags it emits.
type Entry struct {
	Keyword string
	Weight  int
	Tags    []string
}

// Layered holds the three keyword tiers of one mapping category.
// Primary keywords carry the heaviest weights, tertiary the lightest.
type Layered struct {
	Primary   []Entry
	Secondary []Entry
	Tertiary  []Entry
}

// TagScore is one weighted output tag from static classification.
type TagScore struct {
	Tag   string `json:"tag"`
	Score int    `json:"score"`
}

// DefaultMapping is the generic layered keyword schema. It carries no
// user-specific vocabulary; callers extend it at runtime via
// MergeUserKeywords.
var DefaultMapping = map[string]Layered{
	"Theory": {
		Primary: []Entry{
			{"framework", 10, []string{"framework", "theory", "core"}},
			{"schema", 9, []string{"schema", "structure", "pattern"}},
			{"model", 8, []string{"model", "simulation", "computation"}},
		},
		Secondary: []Entry{
			{"document", 7, []string{"document", "export", "format"}},
			{"version", 6, []string{"version", "iteration", "update"}},
			{"manifest", 5, []string{"manifest", "metadata", "spec"}},
		},
		Tertiary: []Entry{
			{"analysis", 3, []string{"analysis", "discussion", "review"}},
		},
	},
	"System": {
		Primary: []Entry{
			{"api_key", 10, []string{"api_key", "secret", "token", "credential"}},
			{"config_file", 9, []string{"config_file", "setting", "parameter"}},
			{"ssh_key", 8, []string{"ssh_key", "auth", "connection"}},
		},
		Secondary: []Entry{
			{"repository", 7, []string{"repository", "git", "version_control"}},
			{"web_server", 6, []string{"web_server", "apache", "nginx", "httpd"}},
			{"service_endpoint", 5, []string{"endpoint", "url", "api"}},
		},
		Tertiary: []Entry{
			{"heartbeat", 3, []string{"heartbeat", "check", "monitor"}},
		},
	},
	"Deployment": {
		Primary: []Entry{
			{"deploy", 10, []string{"deploy", "publish", "release"}},
			{"website", 9, []string{"website", "domain", "host"}},
			{"file_path", 8, []string{"file_path", "directory", "location"}},
		},
		Secondary: []Entry{
			{"static_file", 7, []string{"html", "css", "js", "static"}},
			{"asset", 6, []string{"asset", "resource", "file"}},
		},
		Tertiary: []Entry{
			{"deployed", 3, []string{"deployed", "uploaded", "synced"}},
		},
	},
	"Project": {
		Primary: []Entry{
			{"branch", 10, []string{"branch", "merge", "pull_request"}},
			{"commit", 9, []string{"commit", "history", "revision"}},
			{"remote", 8, []string{"remote", "origin", "upstream"}},
		},
		Secondary: []Entry{
			{"workspace", 7, []string{"workspace", "project_dir", "root"}},
			{"backup", 6, []string{"backup", "archive", "snapshot"}},
		},
		Tertiary: []Entry{
			{"changelog", 3, []string{"change", "update", "note"}},
		},
	},
	"Data": {
		Primary: []Entry{
			{"data_source", 10, []string{"data_source", "database", "dataset"}},
			{"api_endpoint", 9, []string{"api", "endpoint", "service"}},
		},
		Secondary: []Entry{
			{"json", 7, []string{"json", "structured_data"}},
			{"markdown", 6, []string{"markdown", "md", "doc"}},
		},
		Tertiary: []Entry{
			{"transform", 3, []string{"transform", "convert", "process"}},
		},
	},
	"Network": {
		Primary: []Entry{
			{"firewall", 10, []string{"firewall", "security_rule", "filter"}},
			{"vpn", 9, []string{"vpn", "tunnel", "secure_connection"}},
		},
		Secondary: []Entry{
			{"host", 7, []string{"host", "server", "ip"}},
			{"port", 6, []string{"port", "socket", "endpoint"}},
		},
		Tertiary: []Entry{
			{"network_log", 3, []string{"log", "audit", "trace"}},
		},
	},
}

// MergeUserKeywords overlays user-defined entries onto a copy of the
// base mapping, extending existing categories and adding new ones.
func MergeUserKeywords(base, user map[string]Layered) map[string]Layered {
	merged := make(map[string]Layered, len(base)+len(user))
	for name, l := range base {
		merged[name] = l
	}
	for name, l := range user {
		cur := merged[name]
		cur.Primary = append(cur.Primary, l.Primary...)
		cur.Secondary = append(cur.Secondary, l.Secondary...)
		cur.Tertiary = append(cur.Tertiary, l.Tertiary...)
		merged[name] = cur
	}
	return merged
}

// ClassifyContent matches content against the layered keyword mapping
// and returns the top five output tags by summed weight. A nil mapping
// uses DefaultMapping.
func ClassifyContent(content string, mapping map[string]Layered) []TagScore {
	if mapping == nil {
		mapping = DefaultMapping
	}

	scores := make(map[string]int)
	for _, layered := range mapping {
		for _, layer := range [][]Entry{layered.Primary, layered.Secondary, layered.Tertiary} {
			for _, e := range layer {
				if !strings.Contains(content, e.Keyword) {
					continue
				}
				for _, tag := range e.Tags {
					scores[tag] += e.Weight
				}
			}
		}
	}

	out := make([]TagScore, 0, len(scores))
	for tag, score := range scores {
		out = append(out, TagScore{Tag: tag, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// PriorityFromTags derives a priority tier from the heaviest tag weight:
// 9 and above is Critical, 5 and above Important, otherwise Normal.
func PriorityFromTags(tags []TagScore) model.Priority {
	if len(tags) == 0 {
		return model.Normal
	}
	switch top := tags[0].Score; {
	case top >= 9:
		return model.Critical
	case top >= 5:
		return model.Important
	default:
		return model.Normal
	}
}
