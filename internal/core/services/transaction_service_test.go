package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestTransactionCreateValidation(t *testing.T) {
	db := openTestDB(t)
	svc := NewTransactionService(repositories.NewTransactionRepository(db))
	ctx := context.Background()

	if _, err := svc.Create(ctx, &CreateTransactionInput{Type: "transfer", Amount: 100}, 1); !errors.Is(err, ErrInvalidTxType) {
		t.Errorf("bad type: got %v, want ErrInvalidTxType", err)
	}
	if _, err := svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeIncome}, 1); !errors.Is(err, ErrAmountNotPositive) {
		t.Errorf("zero amount: got %v, want ErrAmountNotPositive", err)
	}
	if _, err := svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeIncome, Amount: 100, Date: "31/12/2026"}, 1); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("bad date: got %v, want ErrInvalidDateRange", err)
	}

	tx, err := svc.Create(ctx, &CreateTransactionInput{
		Type: models.TxTypeExpense, Category: "venue", Amount: 450, Date: "2026-03-15",
	}, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.RecordedBy != 7 {
		t.Errorf("recorded_by = %d, want 7", tx.RecordedBy)
	}
}

func TestTransactionListFilters(t *testing.T) {
	db := openTestDB(t)
	svc := NewTransactionService(repositories.NewTransactionRepository(db))
	ctx := context.Background()

	svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeIncome, Amount: 1000, Date: "2026-01-10"}, 1)
	svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeIncome, Amount: 2000, Date: "2026-02-10"}, 1)
	svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeExpense, Amount: 300, Date: "2026-02-15"}, 1)

	_, total, err := svc.List(ctx, &ListTransactionsInput{Type: models.TxTypeIncome, Limit: 20})
	if err != nil {
		t.Fatalf("List by type: %v", err)
	}
	if total != 2 {
		t.Errorf("income total = %d, want 2", total)
	}

	txs, total, err := svc.List(ctx, &ListTransactionsInput{From: "2026-02-01", To: "2026-02-28", Limit: 20})
	if err != nil {
		t.Fatalf("List by range: %v", err)
	}
	if total != 2 {
		t.Errorf("february total = %d, want 2", total)
	}
	for _, tx := range txs {
		if tx.Date.Month() != 2 {
			t.Errorf("out-of-range row: %v", tx.Date)
		}
	}

	if _, _, err := svc.List(ctx, &ListTransactionsInput{Type: "transfer"}); !errors.Is(err, ErrInvalidTxType) {
		t.Errorf("bad filter type: got %v, want ErrInvalidTxType", err)
	}
}

func TestTransactionUpdateAndDelete(t *testing.T) {
	db := openTestDB(t)
	svc := NewTransactionService(repositories.NewTransactionRepository(db))
	ctx := context.Background()

	tx, err := svc.Create(ctx, &CreateTransactionInput{Type: models.TxTypeIncome, Amount: 1000}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, tx.ID, &CreateTransactionInput{Type: models.TxTypeIncome, Amount: 1500})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount != 1500 {
		t.Errorf("amount = %.2f, want 1500", updated.Amount)
	}

	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, tx.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("get after delete: got %v, want ErrTransactionNotFound", err)
	}
}
