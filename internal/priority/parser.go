// Package priority classifies note text into importance tiers.
//
// A note may carry an explicit leading tag ([C], [I] or [N], any case).
// Untagged text is classified by scanning for tier-indicating keywords,
// Critical first, then Important, then Normal.
package priority

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cwhuang/recall/internal/model"
)

// tagPattern matches an explicit tag at the very start of the text.
// A bare tag with no following content does not match and falls through
// to keyword detection.
var tagPattern = regexp.MustCompile(`^\[([CINcin])\]\s*(.+)$`)

// criticalKeywords mark facts that must be retained: decisions,
// formulas, configuration, credentials.
var criticalKeywords = []string{
	"記住", "計算", "驗證", "確認", "決定", "設定",
	"理論", "公式", "原理", "定律", "定理",
	"決策", "選擇", "判斷",
	"配置", "設置", "參數", "選項",
	"重要", "關鍵", "核心", "必要", "必須",
	"密碼", "金鑰", "憑證", "權限",
}

// importantKeywords mark items worth following up on.
var importantKeywords = []string{
	"討論", "談論", "探討", "交流",
	"分析", "比較", "對比", "評估",
	"專案", "項目", "計畫", "規劃",
	"約定", "約會", "會議", "安排",
	"期限", "截止", "到期",
	"文檔", "文獻", "論文", "報告",
}

// normalIndicators mark small talk and greetings.
var normalIndicators = []string{
	"天氣", "怎麼樣", "你好", "早安", "晚安",
	"謝謝", "不客氣", "嗨", "哈囉", "bye",
	"哈哈", "呵呵", "嘿嘿", "lol", "xd",
}

// Parser classifies text into a priority tier.
type Parser struct {
	// AutoDetect enables keyword-based detection for untagged text.
	// When disabled, untagged text is always Normal.
	AutoDetect bool
}

// NewParser returns a parser with auto-detection enabled.
func NewParser() *Parser {
	return &Parser{AutoDetect: true}
}

// Parse classifies text and strips any explicit tag from the content.
func (p *Parser) Parse(text string) model.ParsedNote {
	text = strings.TrimSpace(text)

	if m := tagPattern.FindStringSubmatch(text); m != nil {
		return model.ParsedNote{
			Original: text,
			Priority: model.ParsePriority(m[1]),
			Content:  strings.TrimSpace(m[2]),
			Explicit: true,
		}
	}

	pri := model.Normal
	if p.AutoDetect {
		pri = detect(text)
	}
	return model.ParsedNote{
		Original: text,
		Priority: pri,
		Content:  text,
		Explicit: false,
	}
}

// detect scans keyword tables in fixed precedence order.
func detect(text string) model.Priority {
	lower := strings.ToLower(text)
	if containsAny(lower, criticalKeywords) {
		return model.Critical
	}
	if containsAny(lower, importantKeywords) {
		return model.Important
	}
	return model.Normal
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// AddTag prefixes text with a priority tag, replacing any existing one.
func (p *Parser) AddTag(text string, pri model.Priority) string {
	return fmt.Sprintf("[%s] %s", pri, p.StripTag(text))
}

// ChangePriority rewrites the tag on text to the given tier.
func (p *Parser) ChangePriority(text string, pri model.Priority) string {
	return p.AddTag(text, pri)
}

// StripTag removes a leading priority tag, returning the bare content.
func (p *Parser) StripTag(text string) string {
	text = strings.TrimSpace(text)
	if m := tagPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	return text
}
