package domain

import "context"

type Account struct {
	ID       string
	Username string
}

type Mention struct {
	ID       string
	AuthorID string
	Text     string
}

// Composer generates short text from a prompt.
type Composer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SocialClient is the subset of the social network API the bot uses.
type SocialClient interface {
	Me(ctx context.Context) (Account, error)
	// Mentions returns up to limit recent mentions of the account, newest first.
	Mentions(ctx context.Context, accountID string, limit int) ([]Mention, error)
	Post(ctx context.Context, text string) (string, error)
	Reply(ctx context.Context, inReplyToID, text string) (string, error)
	Like(ctx context.Context, accountID, postID string) error
}
