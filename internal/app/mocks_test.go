package app

import (
	"context"
	"errors"
	"sync"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

type mockComposer struct {
	mu         sync.Mutex
	generateFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *mockComposer) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return `"Hashing away!"`, nil
}

func (m *mockComposer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type reply struct {
	InReplyTo string
	Text      string
}

type mockSocial struct {
	mu sync.Mutex

	meFn       func(ctx context.Context) (domain.Account, error)
	mentionsFn func(ctx context.Context, accountID string, limit int) ([]domain.Mention, error)
	postFn     func(ctx context.Context, text string) (string, error)
	replyFn    func(ctx context.Context, inReplyToID, text string) (string, error)
	likeFn     func(ctx context.Context, accountID, postID string) error

	meCalls int
	posts   []string
	replies []reply
	likes   []string
}

func (m *mockSocial) Me(ctx context.Context) (domain.Account, error) {
	m.mu.Lock()
	m.meCalls++
	m.mu.Unlock()
	if m.meFn != nil {
		return m.meFn(ctx)
	}
	return domain.Account{ID: "100", Username: "gomining_bot"}, nil
}

func (m *mockSocial) Mentions(ctx context.Context, accountID string, limit int) ([]domain.Mention, error) {
	if m.mentionsFn != nil {
		return m.mentionsFn(ctx, accountID, limit)
	}
	return nil, nil
}

func (m *mockSocial) Post(ctx context.Context, text string) (string, error) {
	if m.postFn != nil {
		if id, err := m.postFn(ctx, text); err != nil {
			return id, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, text)
	return "post-1", nil
}

func (m *mockSocial) Reply(ctx context.Context, inReplyToID, text string) (string, error) {
	if m.replyFn != nil {
		if _, err := m.replyFn(ctx, inReplyToID, text); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply{InReplyTo: inReplyToID, Text: text})
	return "reply-" + inReplyToID, nil
}

func (m *mockSocial) Like(ctx context.Context, accountID, postID string) error {
	if m.likeFn != nil {
		if err := m.likeFn(ctx, accountID, postID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes = append(m.likes, postID)
	return nil
}

func (m *mockSocial) repliedTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.replies))
	for _, r := range m.replies {
		ids = append(ids, r.InReplyTo)
	}
	return ids
}

var errUpstream = errors.New("upstream unavailable")
