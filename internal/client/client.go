package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("client not found")

// Client is a borrower. Loans and payments reference clients by id;
// deleting a client cascades through their loans and payments.
type Client struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
