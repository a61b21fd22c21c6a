package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cwhuang/recall/internal/model"
)

func TestParseExplicitTags(t *testing.T) {
	p := NewParser()

	tests := []struct {
		text    string
		want    model.Priority
		content string
	}{
		{"[C] QST 暗物質理論", model.Critical, "QST 暗物質理論"},
		{"[I] OpenClaw 配置討論", model.Important, "OpenClaw 配置討論"},
		{"[N] 一般閒聊內容", model.Normal, "一般閒聊內容"},
		{"[c] 小寫 critical", model.Critical, "小寫 critical"},
		{"[i] 小寫 important", model.Important, "小寫 important"},
		{"[n] 小寫 normal", model.Normal, "小寫 normal"},
		{"[C]   多餘空格測試", model.Critical, "多餘空格測試"},
	}
	for _, tt := range tests {
		got := p.Parse(tt.text)
		assert.Equal(t, tt.want, got.Priority, "text %q", tt.text)
		assert.Equal(t, tt.content, got.Content, "text %q", tt.text)
		assert.True(t, got.Explicit, "text %q", tt.text)
	}
}

func TestAutoDetect(t *testing.T) {
	p := NewParser()

	tests := []struct {
		text string
		want model.Priority
	}{
		{"記住這個重要公式", model.Critical},
		{"計算結果需要保存", model.Critical},
		{"系統配置參數", model.Critical},
		{"我們討論一下專案", model.Important},
		{"比較兩種方案的優劣", model.Important},
		{"會議安排在下午", model.Important},
		{"早安，今天好嗎", model.Normal},
		{"哈哈真有趣", model.Normal},
	}
	for _, tt := range tests {
		got := p.Parse(tt.text)
		assert.Equal(t, tt.want, got.Priority, "text %q", tt.text)
		assert.False(t, got.Explicit, "text %q", tt.text)
	}
}

func TestDetectionPrecedence(t *testing.T) {
	p := NewParser()

	// Critical keywords win even when Important keywords are present.
	got := p.Parse("討論重要配置")
	assert.Equal(t, model.Critical, got.Priority)
}

func TestUnrecognizedBracket(t *testing.T) {
	p := NewParser()

	// An unknown bracket letter is not an explicit tag; detection
	// proceeds over the whole text.
	got := p.Parse("[X] 記住這個公式")
	assert.False(t, got.Explicit)
	assert.Equal(t, model.Critical, got.Priority)
	assert.Equal(t, "[X] 記住這個公式", got.Content)
}

func TestTagNotAtStart(t *testing.T) {
	p := NewParser()

	got := p.Parse("前綴 [C] 不算明確標籤")
	assert.False(t, got.Explicit)
}

func TestBareTagFallsThrough(t *testing.T) {
	p := NewParser()

	// A tag with no following content is treated as absent.
	got := p.Parse("[C]")
	assert.False(t, got.Explicit)
	assert.Equal(t, model.Normal, got.Priority)
}

func TestAutoDetectDisabled(t *testing.T) {
	p := &Parser{AutoDetect: false}

	got := p.Parse("記住這個重要公式")
	assert.Equal(t, model.Normal, got.Priority)

	// Explicit tags are still honored.
	got = p.Parse("[C] 核心公式")
	assert.Equal(t, model.Critical, got.Priority)
	assert.True(t, got.Explicit)
}

func TestAddStripRoundTrip(t *testing.T) {
	p := NewParser()

	for _, text := range []string{"純文本", "[I] 已有標籤", "[N]  空格多"} {
		stripped := p.StripTag(text)
		tagged := p.AddTag(stripped, model.Important)
		got := p.Parse(tagged)
		assert.Equal(t, model.Important, got.Priority)
		assert.Equal(t, stripped, got.Content)
		assert.True(t, got.Explicit)
	}
}

func TestChangePriority(t *testing.T) {
	p := NewParser()

	out := p.ChangePriority("[N] 升級這條", model.Critical)
	assert.Equal(t, "[C] 升級這條", out)
}
