package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"finova/internal/amqp"
	"finova/internal/analytics"
	"finova/internal/core"
)

// Store is the transaction persistence the service orchestrates.
type Store interface {
	CreateTransaction(ctx context.Context, ownerID int64, f core.TransactionFields) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID int64, id string, f core.TransactionFields) error
	DeleteTransaction(ctx context.Context, ownerID int64, id string) error
	ListByOwner(ctx context.Context, ownerID int64) ([]core.Transaction, error)
}

// Notifier receives a hint that an owner's transaction set changed.
type Notifier interface {
	Notify(ctx context.Context, ownerID int64)
}

// EventPublisher announces mutations to other service instances.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ownerID int64, transactionID, op string) error
}

// TransactionService orchestrates transaction writes across the store,
// the local feed hub and the optional AMQP event stream. Validation is
// the caller's job; the service assumes fields already passed it.
type TransactionService struct {
	store     Store
	notifier  Notifier
	publisher EventPublisher
}

func NewTransactionService(store Store, notifier Notifier, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Create writes a new record for ownerID and returns it with the
// store-assigned id and creation time.
func (s *TransactionService) Create(ctx context.Context, ownerID int64, f core.TransactionFields) (core.Transaction, error) {
	tx, err := s.store.CreateTransaction(ctx, ownerID, f)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.fanOut(ctx, ownerID, tx.ID, amqp.OpCreated)
	return tx, nil
}

// Update replaces the editable fields of an existing record.
func (s *TransactionService) Update(ctx context.Context, ownerID int64, id string, f core.TransactionFields) error {
	if err := s.store.UpdateTransaction(ctx, ownerID, id, f); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.fanOut(ctx, ownerID, id, amqp.OpUpdated)
	return nil
}

// Delete removes a record.
func (s *TransactionService) Delete(ctx context.Context, ownerID int64, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.fanOut(ctx, ownerID, id, amqp.OpDeleted)
	return nil
}

// List returns the owner's snapshot narrowed by the search text and
// the kind/category filter axes ("all" disables an axis).
func (s *TransactionService) List(ctx context.Context, ownerID int64, search, kind, category string) ([]core.Transaction, error) {
	list, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analytics.Filter(list, search, kind, category), nil
}

// Snapshot returns the owner's full, unfiltered snapshot.
func (s *TransactionService) Snapshot(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	list, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

// Close releases the service's closable dependencies and aggregates
// their errors.
func (s *TransactionService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// fanOut refreshes local subscribers and announces the mutation to
// other instances. Neither failure mode fails the request: the write
// is already durable and the next snapshot will carry it.
func (s *TransactionService) fanOut(ctx context.Context, ownerID int64, id, op string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, ownerID)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ownerID, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"owner_id", ownerID,
			"transaction_id", id,
			"op", op,
			"error", err)
	}
}
