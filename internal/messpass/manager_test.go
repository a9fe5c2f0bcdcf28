package messpass

import (
	"context"
	"errors"
	"testing"
	"time"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *models.User) {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	user := models.User{
		Name:       "Asha Rao",
		Email:      "asha@example.edu",
		Password:   "hashed",
		UserType:   models.UserTypeStudent,
		RollNumber: "CS21B001",
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return NewManager(conn), &user
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRechargeAndDeductFlow(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}
	if pass.BalanceCents != 0 {
		t.Fatalf("expected zero starting balance, got %d", pass.BalanceCents)
	}

	recharged, errRecharge := mgr.Recharge(ctx, pass.ID, 10000)
	if errRecharge != nil {
		t.Fatalf("recharge: %v", errRecharge)
	}
	if recharged.BalanceCents != 10000 {
		t.Fatalf("expected balance 10000, got %d", recharged.BalanceCents)
	}

	deducted, errDeduct := mgr.Deduct(ctx, pass.ID, 3000)
	if errDeduct != nil {
		t.Fatalf("deduct: %v", errDeduct)
	}
	if deducted.BalanceCents != 7000 {
		t.Fatalf("expected balance 7000, got %d", deducted.BalanceCents)
	}

	if _, errOverdraft := mgr.Deduct(ctx, pass.ID, 10000); !errors.Is(errOverdraft, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", errOverdraft)
	}

	current, errGet := mgr.GetByUser(ctx, user.ID)
	if errGet != nil {
		t.Fatalf("get by user: %v", errGet)
	}
	if current.BalanceCents != 7000 {
		t.Fatalf("failed deduct changed balance: expected 7000, got %d", current.BalanceCents)
	}
}

func TestCreateRejectsSecondActivePass(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	if _, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31)); errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}
	if _, errSecond := mgr.Create(ctx, user.ID, models.PassTypeDaily, date(2024, 2, 1), date(2024, 2, 1)); !errors.Is(errSecond, ErrActivePassExists) {
		t.Fatalf("expected ErrActivePassExists, got %v", errSecond)
	}
}

func TestCreateAllowsReplacingDeactivatedPass(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	first, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}
	if errDeactivate := mgr.Deactivate(ctx, first.ID); errDeactivate != nil {
		t.Fatalf("deactivate: %v", errDeactivate)
	}

	second, errSecond := mgr.Create(ctx, user.ID, models.PassTypeSemester, date(2024, 2, 1), date(2024, 6, 30))
	if errSecond != nil {
		t.Fatalf("create replacement pass: %v", errSecond)
	}
	if second.PassNumber == first.PassNumber {
		t.Fatalf("expected fresh pass number, got %s twice", second.PassNumber)
	}
}

func TestRechargeAdditivity(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}

	if _, errRecharge := mgr.Recharge(ctx, pass.ID, 3333); errRecharge != nil {
		t.Fatalf("recharge a: %v", errRecharge)
	}
	if _, errRecharge := mgr.Recharge(ctx, pass.ID, 6667); errRecharge != nil {
		t.Fatalf("recharge b: %v", errRecharge)
	}

	current, errGet := mgr.GetByUser(ctx, user.ID)
	if errGet != nil {
		t.Fatalf("get by user: %v", errGet)
	}
	if current.BalanceCents != 10000 {
		t.Fatalf("expected 3333+6667=10000, got %d", current.BalanceCents)
	}
}

func TestRechargeRejectsNonPositiveAmounts(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}

	for _, amount := range []int64{0, -500} {
		if _, errRecharge := mgr.Recharge(ctx, pass.ID, amount); !errors.Is(errRecharge, ErrInvalidAmount) {
			t.Fatalf("recharge %d: expected ErrInvalidAmount, got %v", amount, errRecharge)
		}
		if _, errDeduct := mgr.Deduct(ctx, pass.ID, amount); !errors.Is(errDeduct, ErrInvalidAmount) {
			t.Fatalf("deduct %d: expected ErrInvalidAmount, got %v", amount, errDeduct)
		}
	}
}

func TestBalanceOperationsOnMissingPass(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	if _, errRecharge := mgr.Recharge(ctx, 9999, 100); !errors.Is(errRecharge, ErrPassNotFound) {
		t.Fatalf("expected ErrPassNotFound from recharge, got %v", errRecharge)
	}
	if _, errDeduct := mgr.Deduct(ctx, 9999, 100); !errors.Is(errDeduct, ErrPassNotFound) {
		t.Fatalf("expected ErrPassNotFound from deduct, got %v", errDeduct)
	}
	if errDeactivate := mgr.Deactivate(ctx, 9999); !errors.Is(errDeactivate, ErrPassNotFound) {
		t.Fatalf("expected ErrPassNotFound from deactivate, got %v", errDeactivate)
	}
}

func TestDeactivatedPassRejectsBalanceOperations(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}
	if errDeactivate := mgr.Deactivate(ctx, pass.ID); errDeactivate != nil {
		t.Fatalf("deactivate: %v", errDeactivate)
	}

	if _, errRecharge := mgr.Recharge(ctx, pass.ID, 100); !errors.Is(errRecharge, ErrPassInactive) {
		t.Fatalf("expected ErrPassInactive from recharge, got %v", errRecharge)
	}
	if _, errDeduct := mgr.Deduct(ctx, pass.ID, 100); !errors.Is(errDeduct, ErrPassInactive) {
		t.Fatalf("expected ErrPassInactive from deduct, got %v", errDeduct)
	}
}

func TestListExpiredExcludesPassValidThroughToday(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeMonthly, date(2024, 1, 1), date(2024, 1, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}

	onLastDay, errList := mgr.ListExpired(ctx, date(2024, 1, 31))
	if errList != nil {
		t.Fatalf("list expired: %v", errList)
	}
	if len(onLastDay) != 0 {
		t.Fatalf("pass valid through today reported expired")
	}

	afterLastDay, errList := mgr.ListExpired(ctx, date(2024, 2, 1))
	if errList != nil {
		t.Fatalf("list expired: %v", errList)
	}
	if len(afterLastDay) != 1 || afterLastDay[0].ID != pass.ID {
		t.Fatalf("expected exactly the expired pass, got %d rows", len(afterLastDay))
	}

	if errDeactivate := mgr.Deactivate(ctx, pass.ID); errDeactivate != nil {
		t.Fatalf("deactivate: %v", errDeactivate)
	}
	afterDeactivate, errList := mgr.ListExpired(ctx, date(2024, 2, 1))
	if errList != nil {
		t.Fatalf("list expired: %v", errList)
	}
	if len(afterDeactivate) != 0 {
		t.Fatalf("inactive pass reported by expiry sweep")
	}
}

func TestGetByNumberIsPureLookup(t *testing.T) {
	mgr, user := newTestManager(t)
	ctx := context.Background()

	pass, errCreate := mgr.Create(ctx, user.ID, models.PassTypeAnnual, date(2024, 1, 1), date(2024, 12, 31))
	if errCreate != nil {
		t.Fatalf("create pass: %v", errCreate)
	}

	for i := 0; i < 3; i++ {
		found, errGet := mgr.GetByNumber(ctx, pass.PassNumber)
		if errGet != nil {
			t.Fatalf("get by number: %v", errGet)
		}
		if found.ID != pass.ID || found.BalanceCents != 0 {
			t.Fatalf("lookup mutated state: %+v", found)
		}
	}

	if _, errGet := mgr.GetByNumber(ctx, "MPMISSING1"); !errors.Is(errGet, ErrPassNotFound) {
		t.Fatalf("expected ErrPassNotFound, got %v", errGet)
	}
}
