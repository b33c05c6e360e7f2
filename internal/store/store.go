// Package store persists contact form submissions. Production uses a
// DynamoDB table (one item per submission, PK = CONTACT#{id}, SK = META);
// local development without a table falls back to MemoryStore.
package store

import (
	"context"
	"errors"
)

// StatusNew is the status every submission is written with.
const StatusNew = "new"

// ErrNotProvisioned is returned (wrapped) when the backing table does not
// exist yet or is still being created. Callers surface it as a temporary
// condition rather than a failure.
var ErrNotProvisioned = errors.New("contact store is not provisioned")

// ContactStore writes contact submissions. Implementations are safe for
// concurrent use.
type ContactStore interface {
	// PutContact assigns the submission an ID and creation time, writes it,
	// and returns the ID. The submission's ID and CreatedAt fields are set
	// on success.
	PutContact(ctx context.Context, c *ContactSubmission) (string, error)
}

// ContactSubmission is one validated contact form message.
// ID is derived from the partition key and excluded from item attributes.
type ContactSubmission struct {
	ID        string `json:"id" dynamodbav:"-"`
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	Message   string `json:"message" dynamodbav:"message"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"createdAt"`
	Status    string `json:"status" dynamodbav:"status"`
}
