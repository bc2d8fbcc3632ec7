package app

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/cadence"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	"github.com/gbdavies1992-hash/gomining-bot/internal/ledger"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/correlation"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

const (
	SkipLockHeld = "lock_held"

	lockReleaseTimeout = 5 * time.Second
)

var errEmptyText = apperrors.ValidationError("generated text is empty after cleaning")

// Deps are the collaborators of a Bot. Lock and Metrics may be nil.
type Deps struct {
	Gate     *cadence.Gate
	Marker   *cadence.MarkerStore
	Ledger   *ledger.Ledger
	Lock     domain.RunLock
	Composer domain.Composer
	Social   domain.SocialClient
	Prompts  *PromptBuilder
	Clock    clockwork.Clock
	Metrics  *metrics.CycleMetrics
}

type Options struct {
	PostEnabled  bool
	ReplyEnabled bool
	// LikeEnabled likes each mention after replying to it. It has no effect
	// while ReplyEnabled is false.
	LikeEnabled  bool
	MentionLimit int
	Location     *time.Location
}

// PostOutcome describes what the post pass did.
type PostOutcome struct {
	Decision cadence.Decision
	PostID   string
	Text     string
}

// CycleReport summarises one cycle. Failures holds every error that made the
// cycle fail; per-mention upstream errors are only counted.
type CycleReport struct {
	CycleID       string
	StartedAt     time.Time
	Duration      time.Duration
	Skipped       string
	Post          PostOutcome
	MentionsSeen  int
	Replies       int
	ReplyFailures int
	Likes         int
	LikeFailures  int
	SkippedKnown  int
	SkippedSelf   int
	Failures      []error
}

// Err joins the cycle failures, or returns nil.
func (r CycleReport) Err() error {
	return errors.Join(r.Failures...)
}

func (r CycleReport) result() string {
	switch {
	case r.Skipped != "":
		return "skipped"
	case len(r.Failures) > 0:
		return "failure"
	default:
		return "success"
	}
}

// Bot runs the post and mention passes.
type Bot struct {
	gate     *cadence.Gate
	marker   *cadence.MarkerStore
	ledger   *ledger.Ledger
	lock     domain.RunLock
	composer domain.Composer
	social   domain.SocialClient
	prompts  *PromptBuilder
	clock    clockwork.Clock
	metrics  *metrics.CycleMetrics
	opts     Options

	mu      sync.Mutex
	account *domain.Account
	last    *CycleReport
}

func NewBot(deps Deps, opts Options) *Bot {
	if deps.Gate == nil {
		deps.Gate = cadence.DefaultGate()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Prompts == nil {
		deps.Prompts = NewPromptBuilder("my GoMining farm", "", nil, opts.Location)
	}
	return &Bot{
		gate:     deps.Gate,
		marker:   deps.Marker,
		ledger:   deps.Ledger,
		lock:     deps.Lock,
		composer: deps.Composer,
		social:   deps.Social,
		prompts:  deps.Prompts,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		opts:     opts,
	}
}

// RunCycle runs one cycle under the run lock. A cycle that finds the lock
// held elsewhere is skipped and returns no error.
func (b *Bot) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		CycleID:   correlation.NewID(),
		StartedAt: b.clock.Now(),
	}
	ctx = correlation.WithID(ctx, report.CycleID)

	acquired, err := b.acquire(ctx)
	if err != nil {
		report.Failures = append(report.Failures, err)
		return b.finish(ctx, report)
	}
	if !acquired {
		slog.InfoContext(ctx, "Run lock held elsewhere, skipping cycle")
		report.Skipped = SkipLockHeld
		return b.finish(ctx, report)
	}
	defer b.release(ctx)

	if b.opts.PostEnabled {
		if err := b.postPass(ctx, &report); err != nil {
			report.Failures = append(report.Failures, err)
		}
	}
	if b.opts.ReplyEnabled {
		if err := b.mentionPass(ctx, &report); err != nil {
			report.Failures = append(report.Failures, err)
		}
	}

	return b.finish(ctx, report)
}

func (b *Bot) acquire(ctx context.Context) (bool, error) {
	if b.lock == nil {
		return true, nil
	}
	ok, err := b.lock.TryAcquire(ctx)
	if err != nil {
		return false, apperrors.LockError("failed to acquire run lock", err)
	}
	return ok, nil
}

func (b *Bot) release(ctx context.Context) {
	if b.lock == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := b.lock.Release(releaseCtx); err != nil {
		slog.WarnContext(ctx, "Failed to release run lock", "error", err)
	}
}

func (b *Bot) finish(ctx context.Context, report CycleReport) (CycleReport, error) {
	report.Duration = b.clock.Since(report.StartedAt)

	if b.metrics != nil {
		b.metrics.CyclesTotal.WithLabelValues(report.result()).Inc()
		b.metrics.CycleDuration.Observe(report.Duration.Seconds())
	}

	b.mu.Lock()
	last := report
	b.last = &last
	b.mu.Unlock()

	err := report.Err()
	attrs := []any{
		"result", report.result(),
		"duration", report.Duration,
		"post_reason", report.Post.Decision.Reason,
		"post_id", report.Post.PostID,
		"mentions", report.MentionsSeen,
		"replies", report.Replies,
		"reply_failures", report.ReplyFailures,
		"likes", report.Likes,
	}
	if err != nil {
		slog.ErrorContext(ctx, "Bot cycle failed", append(attrs, "error", err)...)
		return report, err
	}
	slog.InfoContext(ctx, "Bot cycle complete", attrs...)
	return report, nil
}

func (b *Bot) postPass(ctx context.Context, report *CycleReport) error {
	marker, hasMarker, err := b.marker.Load(ctx)
	if err != nil {
		b.countPost("failure")
		slog.WarnContext(ctx, "Cannot read post marker, skipping post", "error", err)
		return err
	}

	now := b.clock.Now().In(b.opts.Location)
	decision := b.gate.Evaluate(now, marker, hasMarker)
	report.Post.Decision = decision
	if !decision.Allowed {
		b.countPost("skipped_" + decision.Reason)
		slog.DebugContext(ctx, "Post not allowed", "reason", decision.Reason, "window", decision.WindowKey)
		return nil
	}

	slog.InfoContext(ctx, "Posting farm update", "window", decision.WindowKey)

	text, err := b.compose(ctx, b.prompts.UpdatePrompt(now))
	if err != nil {
		b.countPost("failure")
		return err
	}

	postID, err := b.social.Post(ctx, text)
	if err != nil {
		b.countPost("failure")
		return err
	}
	report.Post.PostID = postID
	report.Post.Text = text
	b.countPost("posted")
	if b.metrics != nil {
		b.metrics.LastPostTimestamp.Set(float64(b.clock.Now().Unix()))
	}
	slog.InfoContext(ctx, "Farm update posted", "post_id", postID, "window", decision.WindowKey, "text", text)

	// The post is live; a failed save here can let the window post twice.
	if err := b.marker.Save(ctx, decision.WindowKey); err != nil {
		return err
	}
	return nil
}

func (b *Bot) mentionPass(ctx context.Context, report *CycleReport) error {
	account, err := b.resolveAccount(ctx)
	if err != nil {
		return err
	}

	mentions, err := b.social.Mentions(ctx, account.ID, b.opts.MentionLimit)
	if err != nil {
		return err
	}
	report.MentionsSeen = len(mentions)
	if len(mentions) == 0 {
		return nil
	}

	known, err := b.ledger.LoadKnown(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Cannot read reply ledger, skipping mentions", "error", err)
		return err
	}
	defer func() {
		if b.metrics != nil {
			b.metrics.LedgerSize.Set(float64(known.Len()))
		}
	}()

	for _, m := range oldestFirst(mentions) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.ledger.IsKnown(m.ID, known) {
			report.SkippedKnown++
			continue
		}
		if m.AuthorID != "" && m.AuthorID == account.ID {
			report.SkippedSelf++
			continue
		}

		replyID, err := b.reply(ctx, m)
		if err != nil {
			report.ReplyFailures++
			b.countReply("failure")
			slog.WarnContext(ctx, "Reply failed", "mention_id", m.ID, "error", err)
			continue
		}
		report.Replies++
		b.countReply("sent")
		slog.InfoContext(ctx, "Replied to mention", "mention_id", m.ID, "reply_id", replyID)

		if err := b.ledger.Record(ctx, m.ID); err != nil {
			return err
		}
		known.Add(m.ID)

		if b.opts.LikeEnabled {
			b.like(ctx, account.ID, m.ID, report)
		}
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, m domain.Mention) (string, error) {
	text, err := b.compose(ctx, b.prompts.ReplyPrompt(m))
	if err != nil {
		return "", err
	}
	return b.social.Reply(ctx, m.ID, text)
}

func (b *Bot) like(ctx context.Context, accountID, postID string, report *CycleReport) {
	if err := b.social.Like(ctx, accountID, postID); err != nil {
		report.LikeFailures++
		b.countLike("failure")
		slog.WarnContext(ctx, "Like failed", "mention_id", postID, "error", err)
		return
	}
	report.Likes++
	b.countLike("liked")
}

func (b *Bot) compose(ctx context.Context, prompt string) (string, error) {
	raw, err := b.composer.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := Clean(raw)
	if text == "" {
		return "", errEmptyText
	}
	return text, nil
}

func (b *Bot) resolveAccount(ctx context.Context) (domain.Account, error) {
	b.mu.Lock()
	cached := b.account
	b.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	account, err := b.social.Me(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	b.mu.Lock()
	b.account = &account
	b.mu.Unlock()
	slog.InfoContext(ctx, "Resolved bot account", "account_id", account.ID, "username", account.Username)
	return account, nil
}

func (b *Bot) countPost(outcome string) {
	if b.metrics != nil {
		b.metrics.PostsTotal.WithLabelValues(outcome).Inc()
	}
}

func (b *Bot) countReply(outcome string) {
	if b.metrics != nil {
		b.metrics.RepliesTotal.WithLabelValues(outcome).Inc()
	}
}

func (b *Bot) countLike(outcome string) {
	if b.metrics != nil {
		b.metrics.LikesTotal.WithLabelValues(outcome).Inc()
	}
}

// oldestFirst orders mentions by ascending snowflake ID. IDs are decimal
// strings without leading zeros, so shorter means older.
func oldestFirst(mentions []domain.Mention) []domain.Mention {
	sorted := slices.Clone(mentions)
	slices.SortStableFunc(sorted, func(a, b domain.Mention) int {
		if c := cmp.Compare(len(a.ID), len(b.ID)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return sorted
}
