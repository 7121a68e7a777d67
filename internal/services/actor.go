package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UserID      string
	Role        string
	AccessToken string
}

func ActorFromClaims(c *helpers.EnhancedClaims) Actor {
	return Actor{UserID: c.UserID, Role: c.GetSafeRole(), AccessToken: c.AccessToken}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) IsGuide() bool {
	return a.Role == models.RoleGuide
}

func (a Actor) require(roles ...string) error {
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not do this", models.ErrForbidden, a.Role)
}

// raceTimeout runs fn and gives up after d even if fn ignores its context.
func raceTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up after %s: %w", d, ctx.Err())
	}
}
