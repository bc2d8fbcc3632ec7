package app

import (
	"strings"
	"testing"
	"time"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

func TestPromptBuilder_HashtagRotatesHourly(t *testing.T) {
	p := NewPromptBuilder("my farm", "1 TH/s", []string{"#A", "#B", "#C"}, time.UTC)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	hours := base.Unix() / 3600

	first := p.Hashtag(base)
	assert.Equal(t, []string{"#A", "#B", "#C"}[hours%3], first)
	assert.Equal(t, first, p.Hashtag(base.Add(59*time.Minute)))
	assert.NotEqual(t, first, p.Hashtag(base.Add(time.Hour)))
	assert.Equal(t, first, p.Hashtag(base.Add(3*time.Hour)))
}

func TestPromptBuilder_HashtagUsesLocalOffset(t *testing.T) {
	tags := []string{"#A", "#B"}
	loc := time.FixedZone("UTC+1", 3600)
	utc := NewPromptBuilder("s", "x", tags, time.UTC)
	plusOne := NewPromptBuilder("s", "x", tags, loc)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.NotEqual(t, utc.Hashtag(now), plusOne.Hashtag(now))
}

func TestPromptBuilder_NoHashtags(t *testing.T) {
	p := NewPromptBuilder("my farm", "1 TH/s", nil, time.UTC)
	assert.Empty(t, p.Hashtag(time.Now()))
	assert.NotContains(t, p.UpdatePrompt(time.Now()), "hashtag")
}

func TestPromptBuilder_UpdatePrompt(t *testing.T) {
	p := NewPromptBuilder("my GoMining farm", "10.39 TH/s power", []string{"#Bitcoin"}, time.UTC)

	prompt := p.UpdatePrompt(time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "my GoMining farm")
	assert.Contains(t, prompt, "10.39 TH/s power")
	assert.Contains(t, prompt, "October")
	assert.Contains(t, prompt, "#Bitcoin")
	assert.Contains(t, prompt, "280")
}

func TestPromptBuilder_MonthFollowsLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	p := NewPromptBuilder("farm", "stats", nil, tokyo)

	prompt := p.UpdatePrompt(time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC))
	assert.Contains(t, prompt, "November")
}

func TestPromptBuilder_ReplyPrompt(t *testing.T) {
	p := NewPromptBuilder("my GoMining farm", "stats", nil, time.UTC)
	prompt := p.ReplyPrompt(domain.Mention{ID: "1", Text: "how much BTC today?"})

	assert.Contains(t, prompt, `"how much BTC today?"`)
	assert.Contains(t, prompt, "friendly reply")
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quotes and whitespace", "  \"To the moon!\"  \n", "To the moon!"},
		{"inner quotes", `He said "hodl"`, "He said hodl"},
		{"empty", "   ", ""},
		{"untouched", "gm #Bitcoin", "gm #Bitcoin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_TruncatesByGraphemes(t *testing.T) {
	flag := "🇨🇭"
	text := strings.Repeat(flag, MaxPostLength+20)

	got := Clean(text)

	assert.Equal(t, MaxPostLength, uniseg.GraphemeClusterCount(got))
	assert.Equal(t, strings.Repeat(flag, MaxPostLength), got)
}
