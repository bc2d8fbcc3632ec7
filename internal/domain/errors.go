package domain

import (
	"errors"

	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

var (
	// ErrStateAbsent is returned by StateStore.Read when nothing was persisted yet.
	ErrStateAbsent = apperrors.ErrConfigAbsent

	ErrAccountNotFound = errors.New("account not found")
)
