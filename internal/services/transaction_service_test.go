package services

import (
	"context"
	"errors"
	"testing"

	"finova/internal/core"
)

type fakeStore struct {
	transactions []core.Transaction
	createErr    error
	updateErr    error
	deleteErr    error
	listErr      error
}

func (f *fakeStore) CreateTransaction(_ context.Context, ownerID int64, fields core.TransactionFields) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	tx := core.Transaction{
		ID:       "tx-1",
		OwnerID:  ownerID,
		Title:    fields.Title,
		Amount:   fields.Amount,
		Category: fields.Category,
		Kind:     fields.Kind,
		Date:     fields.Date,
	}
	f.transactions = append(f.transactions, tx)
	return tx, nil
}

func (f *fakeStore) UpdateTransaction(context.Context, int64, string, core.TransactionFields) error {
	return f.updateErr
}

func (f *fakeStore) DeleteTransaction(context.Context, int64, string) error {
	return f.deleteErr
}

func (f *fakeStore) ListByOwner(context.Context, int64) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.transactions, nil
}

type fakeNotifier struct {
	owners []int64
}

func (f *fakeNotifier) Notify(_ context.Context, ownerID int64) {
	f.owners = append(f.owners, ownerID)
}

type fakePublisher struct {
	ops []string
	err error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, _ int64, _, op string) error {
	if f.err != nil {
		return f.err
	}
	f.ops = append(f.ops, op)
	return nil
}

func fields(title string, cents int64, category core.Category, kind core.Kind, date string) core.TransactionFields {
	return core.TransactionFields{
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Kind:     kind,
		Date:     date,
	}
}

func TestCreateNotifiesAndPublishes(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	svc := NewTransactionService(store, notifier, publisher)

	tx, err := svc.Create(context.Background(), 7, fields("Groceries", 4500, "Food", core.Expense, "2025-08-10"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tx.ID == "" {
		t.Error("Create() returned transaction without id")
	}
	if len(notifier.owners) != 1 || notifier.owners[0] != 7 {
		t.Errorf("notified owners = %v, want [7]", notifier.owners)
	}
	if len(publisher.ops) != 1 || publisher.ops[0] != "created" {
		t.Errorf("published ops = %v, want [created]", publisher.ops)
	}
}

func TestCreateStoreErrorSkipsFanOut(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	svc := NewTransactionService(store, notifier, publisher)

	_, err := svc.Create(context.Background(), 7, fields("Groceries", 4500, "Food", core.Expense, "2025-08-10"))
	if err == nil {
		t.Fatal("Create() error = nil, want store error")
	}
	if len(notifier.owners) != 0 {
		t.Errorf("notifier called %d times after failed create", len(notifier.owners))
	}
	if len(publisher.ops) != 0 {
		t.Errorf("publisher called %d times after failed create", len(publisher.ops))
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, notifier, publisher)

	if _, err := svc.Create(context.Background(), 7, fields("Salary", 300000, "Salary", core.Income, "2025-08-01")); err != nil {
		t.Fatalf("Create() error = %v, want nil despite publish failure", err)
	}
	if len(notifier.owners) != 1 {
		t.Errorf("notified %d times, want 1", len(notifier.owners))
	}
}

func TestUpdateAndDeleteFanOut(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	svc := NewTransactionService(store, notifier, publisher)

	if err := svc.Update(context.Background(), 7, "tx-1", fields("Rent", 90000, "Housing", core.Expense, "2025-08-01")); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := svc.Delete(context.Background(), 7, "tx-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	want := []string{"updated", "deleted"}
	if len(publisher.ops) != 2 || publisher.ops[0] != want[0] || publisher.ops[1] != want[1] {
		t.Errorf("published ops = %v, want %v", publisher.ops, want)
	}
}

type closableStore struct {
	fakeStore
	closeErr error
	closed   bool
}

func (c *closableStore) Close() error {
	c.closed = true
	return c.closeErr
}

func TestCloseAggregatesErrors(t *testing.T) {
	store := &closableStore{closeErr: errors.New("busy")}
	svc := NewTransactionService(store, nil, nil)

	err := svc.Close()
	if err == nil {
		t.Fatal("Close() error = nil, want the store error")
	}
	if !store.closed {
		t.Error("store not closed")
	}

	clean := &closableStore{}
	if err := NewTransactionService(clean, nil, nil).Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestNilPublisherAndNotifier(t *testing.T) {
	svc := NewTransactionService(&fakeStore{}, nil, nil)
	if _, err := svc.Create(context.Background(), 7, fields("Groceries", 4500, "Food", core.Expense, "2025-08-10")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestListAppliesFilter(t *testing.T) {
	store := &fakeStore{}
	svc := NewTransactionService(store, nil, nil)
	ctx := context.Background()

	seed := []core.TransactionFields{
		fields("Groceries", 4500, "Food", core.Expense, "2025-08-10"),
		fields("Salary", 300000, "Salary", core.Income, "2025-08-01"),
		fields("Bus pass", 3000, "Transport", core.Expense, "2025-08-03"),
	}
	for _, f := range seed {
		if _, err := svc.Create(ctx, 7, f); err != nil {
			t.Fatalf("seed Create() error = %v", err)
		}
	}

	got, err := svc.List(ctx, 7, "", "expense", "all")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List(expense) returned %d transactions, want 2", len(got))
	}

	got, err = svc.List(ctx, 7, "salary", "all", "all")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Salary" {
		t.Errorf("List(search salary) = %v, want the Salary transaction", got)
	}
}
