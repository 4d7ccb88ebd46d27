package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "ACTIVE"
	ServiceStatusInactive ServiceStatus = "INACTIVE"
)

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID          uuid.UUID     `bun:"id,pk,type:uuid"`
	Title       string        `bun:"title,notnull"`
	Description string        `bun:"description"`
	PriceCents  int64         `bun:"price_cents,notnull"`
	ProviderID  uuid.UUID     `bun:"provider_id,notnull,type:uuid"`
	Provider    *User         `bun:"rel:belongs-to,join:provider_id=id"`
	Status      ServiceStatus `bun:"status,notnull"`
	CreatedAt   time.Time     `bun:"created_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.Status == "" {
			s.Status = ServiceStatusActive
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
