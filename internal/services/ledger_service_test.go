package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

func newLedgerFixture() (*fixture, *LedgerService, models.Client, models.Client) {
	client := models.Client{ID: uuid.New(), AccountID: testAccountID, FullName: "Dana Reyes"}
	sibling := models.Client{ID: uuid.New(), AccountID: testAccountID, FullName: "Sam Ortiz"}
	f := newFixture(client, sibling)
	service := NewLedgerService(f.transactions, f.clients, f.appointments, nil, fixedClock(serviceNow))
	return f, service, client, sibling
}

func TestLedgerBalanceScenario(t *testing.T) {
	_, service, client, sibling := newLedgerFixture()
	ctx := context.Background()

	for _, entry := range []struct {
		kind   string
		amount int64
	}{
		{kind: "payment", amount: 100000},
		{kind: "charge", amount: 40000},
		{kind: "refund", amount: 10000},
	} {
		if _, err := service.Create(ctx, ownerScope(), CreateTransactionInput{
			ClientID: client.ID,
			Amount:   entry.amount,
			Type:     entry.kind,
			Method:   "card",
		}); err != nil {
			t.Fatalf("Create %s: %v", entry.kind, err)
		}
	}
	if _, err := service.Create(ctx, ownerScope(), CreateTransactionInput{ClientID: sibling.ID, Amount: 999, Type: "charge"}); err != nil {
		t.Fatalf("Create sibling: %v", err)
	}

	balance, err := service.GetBalance(ctx, ownerScope(), client.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Balance != 50000 {
		t.Fatalf("expected balance 50000, got %d", balance.Balance)
	}
	if balance.Totals.Payments != 100000 || balance.Totals.Charges != 40000 || balance.Totals.Refunds != 10000 {
		t.Fatalf("unexpected totals %+v", balance.Totals)
	}
}

func TestLedgerBalanceOfEmptyLedgerIsZero(t *testing.T) {
	_, service, client, _ := newLedgerFixture()

	balance, err := service.GetBalance(context.Background(), ownerScope(), client.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Balance != 0 {
		t.Fatalf("expected 0, got %d", balance.Balance)
	}
}

func TestLedgerBalanceMayGoNegative(t *testing.T) {
	_, service, client, _ := newLedgerFixture()
	if _, err := service.Create(context.Background(), ownerScope(), CreateTransactionInput{ClientID: client.ID, Amount: 500, Type: "charge"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	balance, err := service.GetBalance(context.Background(), ownerScope(), client.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Balance != -500 {
		t.Fatalf("expected -500, got %d", balance.Balance)
	}
}

func TestLedgerCreateValidation(t *testing.T) {
	f, service, client, _ := newLedgerFixture()
	foreign := models.Client{ID: uuid.New(), AccountID: otherAccountID, FullName: "Other"}
	f.clients.rows[foreign.ID] = &foreign

	tests := []struct {
		name  string
		input CreateTransactionInput
		want  error
	}{
		{name: "zero amount", input: CreateTransactionInput{ClientID: client.ID, Amount: 0, Type: "payment"}, want: ErrValidation},
		{name: "unknown type", input: CreateTransactionInput{ClientID: client.ID, Amount: 10, Type: "tip"}, want: ErrValidation},
		{name: "client of another account", input: CreateTransactionInput{ClientID: foreign.ID, Amount: 10, Type: "payment"}, want: ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.Create(context.Background(), ownerScope(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(f.transactions.rows) != 0 {
		t.Fatal("expected no transactions")
	}

	if _, err := service.Create(context.Background(), repository.Scope{}, CreateTransactionInput{ClientID: client.ID, Amount: 10, Type: "payment"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without a caller, got %v", err)
	}
}

func TestLedgerCreateDefaultsStatusAndDate(t *testing.T) {
	_, service, client, _ := newLedgerFixture()

	txn, err := service.Create(context.Background(), ownerScope(), CreateTransactionInput{ClientID: client.ID, Amount: 10, Type: " Payment "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if txn.Type != models.TransactionPayment {
		t.Fatalf("expected payment, got %s", txn.Type)
	}
	if txn.Status != "completed" {
		t.Fatalf("expected completed status, got %s", txn.Status)
	}
	if !txn.Date.Equal(serviceNow) {
		t.Fatalf("expected date %s, got %s", serviceNow, txn.Date)
	}
}

func TestLedgerDeleteRequiresOwnerOfTheAccount(t *testing.T) {
	f, service, client, _ := newLedgerFixture()
	txn, err := service.Create(context.Background(), ownerScope(), CreateTransactionInput{ClientID: client.ID, Amount: 10, Type: "payment"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	counselor := repository.Scope{AccountID: testAccountID, UserID: testCounselorID, Role: models.RoleCounselor}
	if err := service.Delete(context.Background(), counselor, txn.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	otherOwner := repository.Scope{AccountID: otherAccountID, UserID: uuid.New(), Role: models.RoleOwner}
	if err := service.Delete(context.Background(), otherOwner, txn.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another account, got %v", err)
	}
	if err := service.Delete(context.Background(), ownerScope(), txn.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.transactions.rows) != 0 {
		t.Fatal("expected transaction to be deleted")
	}
}
