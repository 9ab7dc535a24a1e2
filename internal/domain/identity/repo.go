package identity

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type ConsultantRepository interface {
	GetByID(ctx context.Context, id string) (*Consultant, error)
	List(ctx context.Context) ([]*Consultant, error)
}
