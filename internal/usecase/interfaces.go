package usecase

import (
	"context"
	"time"

	"dms/internal/domain/entity"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(actor *entity.Actor) (token string, expiresAt time.Time, err error)
}

// TokenVerifier resolves a bearer token to the acting identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entity.Actor, error)
}

type InventoryExporter interface {
	InventoryWorkbook(report *entity.InventoryReport, devices []*entity.Device) ([]byte, error)
}
