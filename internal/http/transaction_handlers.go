package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finova/internal/analytics"
	"finova/internal/auth"
	"finova/internal/core"
)

// TransactionService is the write-and-list surface the handlers call.
type TransactionService interface {
	Create(ctx context.Context, ownerID int64, f core.TransactionFields) (core.Transaction, error)
	Update(ctx context.Context, ownerID int64, id string, f core.TransactionFields) error
	Delete(ctx context.Context, ownerID int64, id string) error
	List(ctx context.Context, ownerID int64, search, kind, category string) ([]core.Transaction, error)
	Snapshot(ctx context.Context, ownerID int64) ([]core.Transaction, error)
}

type transactionRequest struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Date     string `json:"date"`
}

// fields parses the request into validated domain fields. Amount
// arrives as the user typed it and is converted to cents here.
func (req transactionRequest) fields() (core.TransactionFields, error) {
	ve := &core.ValidationError{}
	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		ve.Add("amount", "Enter a valid amount")
	}
	f := core.TransactionFields{
		Title:    req.Title,
		Amount:   core.Money{Cents: cents},
		Category: core.Category(req.Category),
		Kind:     core.Kind(req.Kind),
		Date:     req.Date,
	}
	if err := f.Validate(); err != nil {
		if fieldErr, ok := err.(*core.ValidationError); ok {
			for field, msg := range fieldErr.Fields {
				ve.Add(field, msg)
			}
		}
	}
	if len(ve.Fields) > 0 {
		return core.TransactionFields{}, ve
	}
	return f, nil
}

func ownerID(r *http.Request) int64 {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return claims.UserID
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("search")
	kind := q.Get("kind")
	category := q.Get("category")
	if kind == "" {
		kind = analytics.All
	}
	if category == "" {
		category = analytics.All
	}

	list, err := s.txSvc.List(r.Context(), ownerID(r), search, kind, category)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := s.txSvc.Create(r.Context(), ownerID(r), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.txSvc.Update(r.Context(), ownerID(r), id, f); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.txSvc.Delete(r.Context(), ownerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
