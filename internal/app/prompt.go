package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

// MaxPostLength is the X limit, counted in grapheme clusters.
const MaxPostLength = 280

// PromptBuilder renders the prompts sent to the composer.
type PromptBuilder struct {
	subject  string
	stats    string
	hashtags []string
	location *time.Location
}

func NewPromptBuilder(subject, stats string, hashtags []string, location *time.Location) *PromptBuilder {
	if location == nil {
		location = time.Local
	}
	return &PromptBuilder{
		subject:  subject,
		stats:    stats,
		hashtags: hashtags,
		location: location,
	}
}

// Hashtag picks one hashtag per hour, rotating through the configured list.
// It returns "" when no hashtags are configured.
func (p *PromptBuilder) Hashtag(now time.Time) string {
	if len(p.hashtags) == 0 {
		return ""
	}
	local := now.In(p.location)
	_, offset := local.Zone()
	hours := (local.Unix() + int64(offset)) / 3600
	idx := hours % int64(len(p.hashtags))
	if idx < 0 {
		idx += int64(len(p.hashtags))
	}
	return p.hashtags[idx]
}

func (p *PromptBuilder) UpdatePrompt(now time.Time) string {
	local := now.In(p.location)

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, hype tweet about %s. ", p.subject)
	fmt.Fprintf(&b, "Stats: %s. It's %s. ", p.stats, local.Month())
	b.WriteString("Be creative and bullish on Bitcoin!")
	if tag := p.Hashtag(now); tag != "" {
		fmt.Fprintf(&b, " Include the hashtag %s.", tag)
	}
	fmt.Fprintf(&b, " Keep it under %d characters and do not wrap it in quotes.", MaxPostLength)
	return b.String()
}

func (p *PromptBuilder) ReplyPrompt(m domain.Mention) string {
	return fmt.Sprintf(
		"Someone mentioned %s on X: %q. Write a short, friendly reply under %d characters. Do not wrap it in quotes.",
		p.subject, m.Text, MaxPostLength,
	)
}

// Clean strips double quotes and surrounding whitespace from generated text
// and truncates it to MaxPostLength grapheme clusters.
func Clean(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, `"`, ""))
	if uniseg.GraphemeClusterCount(text) <= MaxPostLength {
		return text
	}

	g := uniseg.NewGraphemes(text)
	end := 0
	for n := 0; n < MaxPostLength && g.Next(); n++ {
		_, end = g.Positions()
	}
	return strings.TrimSpace(text[:end])
}
