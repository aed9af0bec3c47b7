package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
)

// Authorize is the single write guard for stores, products and orders. A
// missing resource is reported as not found before ownership is checked.
func (s *Service) Authorize(
	ctx context.Context, actorID string, kind domain.ResourceKind, id string,
) error {
	const op = "Service.Authorize"

	if !kind.Valid() {
		return fmt.Errorf("%s: unknown resource kind %q", op, kind)
	}

	o, err := s.storage.ReadOwnership(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !domain.CanMutate(actorID, o) {
		return fmt.Errorf(
			"%s: %w to modify this %s", op, domain.ErrForbidden, kind,
		)
	}
	return nil
}
