package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/payment"
)

type testEnv struct {
	orders *Service
	passes *messpass.Manager
	conn   *gorm.DB
	user   *models.User
	items  []models.MenuItem
}

func newTestEnv(t *testing.T) testEnv {
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

	items := []models.MenuItem{
		{Name: "Dosa", PriceCents: 3000, MealType: models.MealTypeBreakfast, Category: models.FoodCategoryMainCourse, IsAvailable: true, IsVegetarian: true},
		{Name: "Tea", PriceCents: 1000, MealType: models.MealTypeBreakfast, Category: models.FoodCategoryBeverage, IsAvailable: true, IsVegetarian: true},
		{Name: "Fish Curry", PriceCents: 5000, MealType: models.MealTypeDinner, Category: models.FoodCategoryCurry, IsAvailable: false, IsVegetarian: false},
	}
	for i := range items {
		if errCreate := conn.Create(&items[i]).Error; errCreate != nil {
			t.Fatalf("create item: %v", errCreate)
		}
	}

	passes := messpass.NewManager(conn)
	payments := payment.NewService(conn, passes)
	return testEnv{
		orders: NewService(conn, payments),
		passes: passes,
		conn:   conn,
		user:   &user,
		items:  items,
	}
}

func TestCreateSumsItemPrices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mealOrder, errCreate := env.orders.Create(ctx, env.user.ID, models.MealTypeBreakfast,
		[]uint64{env.items[0].ID, env.items[1].ID}, "less spicy")
	if errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}
	if mealOrder.TotalAmountCents != 4000 {
		t.Fatalf("expected total 4000, got %d", mealOrder.TotalAmountCents)
	}
	if mealOrder.Status != models.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", mealOrder.Status)
	}
	if len(mealOrder.ItemsSnapshot) == 0 {
		t.Fatalf("expected items snapshot")
	}
}

func TestCreateRejectsEmptyAndUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, errEmpty := env.orders.Create(ctx, env.user.ID, models.MealTypeLunch, nil, ""); !errors.Is(errEmpty, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", errEmpty)
	}
	if _, errUnavailable := env.orders.Create(ctx, env.user.ID, models.MealTypeDinner, []uint64{env.items[2].ID}, ""); !errors.Is(errUnavailable, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", errUnavailable)
	}
	if _, errMissing := env.orders.Create(ctx, env.user.ID, models.MealTypeDinner, []uint64{9999}, ""); !errors.Is(errMissing, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable for missing item, got %v", errMissing)
	}
}

func TestPayWithPassConfirmsOrderAndDeductsBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pass, errPass := env.passes.Create(ctx, env.user.ID, models.PassTypeMonthly,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if errPass != nil {
		t.Fatalf("create pass: %v", errPass)
	}
	if _, errRecharge := env.passes.Recharge(ctx, pass.ID, 10000); errRecharge != nil {
		t.Fatalf("recharge: %v", errRecharge)
	}

	mealOrder, errCreate := env.orders.Create(ctx, env.user.ID, models.MealTypeBreakfast,
		[]uint64{env.items[0].ID, env.items[1].ID}, "")
	if errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	paid, errPay := env.orders.PayWithPass(ctx, mealOrder.ID, pass.ID)
	if errPay != nil {
		t.Fatalf("pay with pass: %v", errPay)
	}
	if paid.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", paid.Status)
	}

	updated, errGet := env.passes.GetByUser(ctx, env.user.ID)
	if errGet != nil {
		t.Fatalf("get pass: %v", errGet)
	}
	if updated.BalanceCents != 6000 {
		t.Fatalf("expected balance 6000, got %d", updated.BalanceCents)
	}

	var ledger []models.Payment
	if errFind := env.conn.Where("payment_type = ?", models.PaymentTypeMealPayment).Find(&ledger).Error; errFind != nil {
		t.Fatalf("find payments: %v", errFind)
	}
	if len(ledger) != 1 || ledger[0].AmountCents != 4000 {
		t.Fatalf("expected one 4000c meal payment, got %+v", ledger)
	}

	if _, errAgain := env.orders.PayWithPass(ctx, mealOrder.ID, pass.ID); !errors.Is(errAgain, ErrOrderNotPayable) {
		t.Fatalf("expected ErrOrderNotPayable on second payment, got %v", errAgain)
	}
}

func TestPayWithPassInsufficientBalanceLeavesOrderPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pass, errPass := env.passes.Create(ctx, env.user.ID, models.PassTypeMonthly,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if errPass != nil {
		t.Fatalf("create pass: %v", errPass)
	}

	mealOrder, errCreate := env.orders.Create(ctx, env.user.ID, models.MealTypeBreakfast,
		[]uint64{env.items[0].ID}, "")
	if errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	if _, errPay := env.orders.PayWithPass(ctx, mealOrder.ID, pass.ID); !errors.Is(errPay, messpass.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", errPay)
	}

	current, errGet := env.orders.Get(ctx, mealOrder.ID)
	if errGet != nil {
		t.Fatalf("get order: %v", errGet)
	}
	if current.Status != models.OrderStatusPending {
		t.Fatalf("failed payment changed order status to %s", current.Status)
	}

	// The whole settlement rolls back together: no ledger row, no balance
	// change.
	var ledgerCount int64
	if errCount := env.conn.Model(&models.Payment{}).
		Where("payment_type = ?", models.PaymentTypeMealPayment).
		Count(&ledgerCount).Error; errCount != nil {
		t.Fatalf("count payments: %v", errCount)
	}
	if ledgerCount != 0 {
		t.Fatalf("failed payment left %d ledger rows", ledgerCount)
	}
	unchanged, errPassGet := env.passes.GetByUser(ctx, env.user.ID)
	if errPassGet != nil {
		t.Fatalf("get pass: %v", errPassGet)
	}
	if unchanged.BalanceCents != 0 {
		t.Fatalf("failed payment moved balance to %d", unchanged.BalanceCents)
	}
}

func TestPayWithPassRejectsCancelledOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pass, errPass := env.passes.Create(ctx, env.user.ID, models.PassTypeMonthly,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if errPass != nil {
		t.Fatalf("create pass: %v", errPass)
	}
	if _, errRecharge := env.passes.Recharge(ctx, pass.ID, 10000); errRecharge != nil {
		t.Fatalf("recharge: %v", errRecharge)
	}

	mealOrder, errCreate := env.orders.Create(ctx, env.user.ID, models.MealTypeBreakfast,
		[]uint64{env.items[0].ID}, "")
	if errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}
	if _, errCancel := env.orders.Cancel(ctx, mealOrder.ID); errCancel != nil {
		t.Fatalf("cancel: %v", errCancel)
	}

	if _, errPay := env.orders.PayWithPass(ctx, mealOrder.ID, pass.ID); !errors.Is(errPay, ErrOrderNotPayable) {
		t.Fatalf("expected ErrOrderNotPayable, got %v", errPay)
	}
	unchanged, errGet := env.passes.GetByUser(ctx, env.user.ID)
	if errGet != nil {
		t.Fatalf("get pass: %v", errGet)
	}
	if unchanged.BalanceCents != 10000 {
		t.Fatalf("cancelled order payment moved balance to %d", unchanged.BalanceCents)
	}
}

func TestStatusFlowAndCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mealOrder, errCreate := env.orders.Create(ctx, env.user.ID, models.MealTypeBreakfast,
		[]uint64{env.items[0].ID}, "")
	if errCreate != nil {
		t.Fatalf("create order: %v", errCreate)
	}

	if _, errUpdate := env.orders.UpdateStatus(ctx, mealOrder.ID, models.OrderStatusPreparing); errUpdate != nil {
		t.Fatalf("update status: %v", errUpdate)
	}
	cancelled, errCancel := env.orders.Cancel(ctx, mealOrder.ID)
	if errCancel != nil {
		t.Fatalf("cancel: %v", errCancel)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	if _, errMissing := env.orders.UpdateStatus(ctx, 9999, models.OrderStatusReady); !errors.Is(errMissing, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", errMissing)
	}
}
