package providers

import (
	"context"

	"github.com/brizzai/notion-tasks-sync/internal/auth/models"
)

// Provider defines the interface that all OAuth providers must implement
type Provider interface {
	// AuthCodeURL returns the consent page URL for the provider
	AuthCodeURL(state string) string

	// ExchangeCode trades a single-use authorization code for tokens and
	// attaches the verified identity of the user who granted them.
	ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error)
}
