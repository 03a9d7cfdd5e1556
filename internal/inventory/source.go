// Package inventory holds the dashboard's view of the inventory collection:
// where items come from, how they are filtered and summarised, and the edit
// form that round-trips changes to the products API.
package inventory

import (
	"context"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/models"
)

// Source is the collection capability the dashboard is written against.
// *client.Client implements it for the live API; MockSource for demo mode.
type Source interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	Create(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error)
	Update(ctx context.Context, id string, in models.ItemInput) (*models.InventoryItem, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator exchanges credentials for a token and user blob
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// Backend authenticates users and hands out a Source bound to a session
type Backend interface {
	Authenticator
	ForSession(s *auth.Session) Source
}

type liveBackend struct {
	*client.Client
}

// Live wraps the products API client as a Backend
func Live(c *client.Client) Backend {
	return liveBackend{Client: c}
}

func (b liveBackend) ForSession(s *auth.Session) Source {
	return b.Client.WithSession(s)
}
