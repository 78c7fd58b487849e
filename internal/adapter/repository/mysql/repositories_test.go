package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"loanflow-backend/internal/domain/charges"
	loanDomain "loanflow-backend/internal/domain/loan"
	reviewDomain "loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/schedule"
	userDomain "loanflow-backend/internal/domain/user"
)

func TestCharges_DefaultWhenEmpty(t *testing.T) {
	db := openTestDB(t)
	repo := NewChargesRepository(db)

	got, err := repo.GetCurrent(context.Background())
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if got != charges.Default() || got.ProcessingDays != 15 {
		t.Fatalf("want defaults, got %+v", got)
	}
}

func TestCharges_LatestRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewChargesRepository(db)

	for _, c := range []charges.Config{
		{DepositAmount: 100, FileCharge: 10, PlatformFee: 5, Tax: 1, ProcessingDays: 20},
		{DepositAmount: 200, FileCharge: 20, PlatformFee: 10, Tax: 2, ProcessingDays: 7},
	} {
		c := c
		if err := db.Create(&c).Error; err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetCurrent(context.Background())
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if got.DepositAmount != 200 || got.ProcessingDays != 7 {
		t.Fatalf("want latest row, got %+v", got)
	}
}

func TestTransitions_ListDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewTransitionRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

	recs := []schedule.PendingTransition{
		{ID: "t2", LoanID: "L1", Kind: schedule.KindAutoDecision, ExpectedStatus: loanDomain.StatusValidating, FireAt: base.Add(2 * time.Minute)},
		{ID: "t1", LoanID: "L2", Kind: schedule.KindAutoDecision, ExpectedStatus: loanDomain.StatusValidating, FireAt: base.Add(time.Minute)},
		{ID: "t3", LoanID: "L1", Kind: schedule.KindAutoDecision, ExpectedStatus: loanDomain.StatusValidating, FireAt: base.Add(3 * time.Minute)},
	}
	for i := range recs {
		if err := repo.Create(ctx, &recs[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := repo.ListAll(ctx)
	if err != nil || len(all) != 3 || all[0].ID != "t1" || all[2].ID != "t3" {
		t.Fatalf("ListAll order: %+v err=%v", all, err)
	}

	if err := repo.DeleteByLoanID(ctx, "L1"); err != nil {
		t.Fatalf("DeleteByLoanID: %v", err)
	}
	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if all, _ := repo.ListAll(ctx); len(all) != 0 {
		t.Fatalf("expected empty, got %+v", all)
	}
	// deleting a missing record is not an error
	if err := repo.Delete(ctx, "nope"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestReviews_ListByLoanID(t *testing.T) {
	db := openTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, makeReview(7, reviewDomain.DecisionRejected, base)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, makeReview(7, reviewDomain.DecisionApproved, base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, makeReview(8, reviewDomain.DecisionApproved, base)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListByLoanID(ctx, 7)
	if err != nil {
		t.Fatalf("ListByLoanID: %v", err)
	}
	if len(got) != 2 || got[0].Decision != reviewDomain.DecisionRejected || got[1].Decision != reviewDomain.DecisionApproved {
		t.Fatalf("unexpected reviews: %+v", got)
	}
}

func TestUsers_GetAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	for _, u := range []userDomain.User{
		{UserID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Email: "a@example.com"},
		{UserID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Phone: "+628111"},
	} {
		u := u
		if err := db.Create(&u).Error; err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetByUserID(ctx, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if err != nil || got.Email != "a@example.com" {
		t.Fatalf("GetByUserID: %+v err=%v", got, err)
	}
	if _, err := repo.GetByUserID(ctx, "cccccccccccccccccccccccccccccccc"); !errors.Is(err, userDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List: n=%d err=%v", len(all), err)
	}
}
