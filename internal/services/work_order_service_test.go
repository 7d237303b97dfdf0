package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T) (*WorkOrderService, *models.Shop, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	shop := createShop(t, db, "summit")
	return NewWorkOrderService(db, NewDailyLimitGuard(time.UTC)), shop, db
}

func TestJaneDoeSubmitsTwice(t *testing.T) {
	svc, shop, db := newOrderService(t)
	ctx := context.Background()

	first, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, models.OrderStatusReceived, first.WorkOrder.Status)
	require.Len(t, first.WorkOrder.Items, 1)
	equipment := first.WorkOrder.Items[0]
	assert.Equal(t, "tune", equipment.ServiceType)
	assert.Equal(t, models.ItemStatusPending, equipment.Status)

	second, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("wax")))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.WorkOrder.ID, second.WorkOrder.ID)
	assert.Equal(t, first.WorkOrder.CustomerID, second.WorkOrder.CustomerID)
	require.Len(t, second.WorkOrder.Items, 1)
	assert.Equal(t, equipment.ID, second.WorkOrder.Items[0].ID)
	assert.Equal(t, equipment.EquipmentID, second.WorkOrder.Items[0].EquipmentID)
	assert.Equal(t, "wax", second.WorkOrder.Items[0].ServiceType)
	require.Len(t, second.Submitted, 1)
	assert.Equal(t, equipment.ID, second.Submitted[0].ID)

	var customers, orders, items int64
	db.Model(&models.Customer{}).Count(&customers)
	db.Model(&models.WorkOrder{}).Count(&orders)
	db.Model(&models.Equipment{}).Count(&items)
	assert.Equal(t, int64(1), customers)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(1), items)
}

func TestDuplicateItemsInOneSubmissionCollapse(t *testing.T) {
	svc, shop, db := newOrderService(t)

	res, err := svc.ResolveOrMergeWorkOrder(context.Background(), shop.ID,
		submission(janeDoe(), atomicSkis("tune"), atomicSkis("tune")))
	require.NoError(t, err)
	assert.Len(t, res.WorkOrder.Items, 1)

	var equipment, items int64
	db.Model(&models.Equipment{}).Count(&equipment)
	db.Model(&models.WorkOrderItem{}).Count(&items)
	assert.Equal(t, int64(1), equipment)
	assert.Equal(t, int64(1), items)
}

func TestDifferentItemsAreAppended(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	_, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	board := dto.EquipmentInput{Type: models.EquipmentTypeSnowboard, Brand: "Burton", Model: "Custom", Length: intPtr(158), ServiceType: "wax"}
	longer := atomicSkis("tune")
	longer.Length = intPtr(180)
	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), board, longer))
	require.NoError(t, err)
	assert.False(t, res.Created)
	require.Len(t, res.WorkOrder.Items, 3)
	require.Len(t, res.Submitted, 2)
	assert.Equal(t, "Burton", res.Submitted[0].Equipment.Brand)
	assert.Equal(t, "Atomic", res.Submitted[1].Equipment.Brand)
	for i, item := range res.WorkOrder.Items {
		assert.Equal(t, i, item.Position)
	}
}

func TestBootsAreDeduplicated(t *testing.T) {
	svc, shop, db := newOrderService(t)
	ctx := context.Background()

	mount := atomicSkis("mount")
	mount.Boot = &dto.BootInput{Brand: "Lange", Model: "RX 120", BSL: intPtr(305)}
	first, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), mount))
	require.NoError(t, err)
	require.NotNil(t, first.WorkOrder.Items[0].Equipment)
	require.NotNil(t, first.WorkOrder.Items[0].Equipment.BootID)

	other := dto.EquipmentInput{Type: models.EquipmentTypeSki, Brand: "Head", Model: "Kore 99", Length: intPtr(177), ServiceType: "mount"}
	other.Boot = &dto.BootInput{Brand: "Lange", Model: "RX 120", BSL: intPtr(305), Age: intPtr(34)}
	second, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), other))
	require.NoError(t, err)
	require.Len(t, second.WorkOrder.Items, 2)

	var boots []models.Boot
	require.NoError(t, db.Find(&boots).Error)
	require.Len(t, boots, 1)
	require.NotNil(t, boots[0].Age)
	assert.Equal(t, 34, *boots[0].Age)
	for _, item := range second.WorkOrder.Items {
		require.NotNil(t, item.Equipment)
		require.NotNil(t, item.Equipment.BootID)
		assert.Equal(t, boots[0].ID, *item.Equipment.BootID)
	}
}

func TestNewOrderAfterPickupReusesEquipment(t *testing.T) {
	svc, shop, db := newOrderService(t)
	ctx := context.Background()

	first, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)
	_, err = svc.MarkPickedUp(ctx, shop.ID, first.WorkOrder.ID)
	require.NoError(t, err)

	second, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("edge")))
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.WorkOrder.ID, second.WorkOrder.ID)
	require.Len(t, second.WorkOrder.Items, 1)
	assert.Equal(t, first.WorkOrder.Items[0].EquipmentID, second.WorkOrder.Items[0].EquipmentID)
	assert.NotEqual(t, first.WorkOrder.Items[0].ID, second.WorkOrder.Items[0].ID)
	assert.Equal(t, models.ItemStatusPending, second.WorkOrder.Items[0].Status)
	assert.Equal(t, "edge", second.WorkOrder.Items[0].ServiceType)

	closed, err := svc.GetWorkOrder(ctx, shop.ID, first.WorkOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPickedUp, closed.Status)
	require.Len(t, closed.Items, 1)
	assert.Equal(t, first.WorkOrder.Items[0].EquipmentID, closed.Items[0].EquipmentID)
	assert.Equal(t, models.ItemStatusPickedUp, closed.Items[0].Status)
	assert.Equal(t, "tune", closed.Items[0].ServiceType)

	var equipment int64
	db.Model(&models.Equipment{}).Count(&equipment)
	assert.Equal(t, int64(1), equipment)
}

func TestItemStatusRollUp(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	board := dto.EquipmentInput{Type: models.EquipmentTypeSnowboard, Brand: "Burton", Model: "Custom", Length: intPtr(158), ServiceType: "wax"}
	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune"), board))
	require.NoError(t, err)
	skis, snowboard := res.WorkOrder.Items[0], res.WorkOrder.Items[1]

	order, err := svc.SetWorkOrderStatus(ctx, shop.ID, res.WorkOrder.ID, models.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, order.Status)

	order, err = svc.UpdateItemStatus(ctx, shop.ID, skis.ID, models.ItemStatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, order.Status, "[DONE, PENDING] keeps the prior status")

	order, err = svc.UpdateItemStatus(ctx, shop.ID, snowboard.ID, models.ItemStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, order.Status, "[DONE, IN_PROGRESS] keeps the prior status")

	order, err = svc.UpdateItemStatus(ctx, shop.ID, snowboard.ID, models.ItemStatusDone)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDone, order.Status)
	assert.NotNil(t, order.CompletedAt)
}

func TestUpdateItemStatusRejectsPickedUpAndUnknown(t *testing.T) {
	svc, shop, db := newOrderService(t)
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)
	itemID := res.WorkOrder.Items[0].ID

	for _, status := range []string{models.ItemStatusPickedUp, "FINISHED", "", "done"} {
		_, err := svc.UpdateItemStatus(ctx, shop.ID, itemID, status)
		assert.ErrorIs(t, err, ErrInvalidItemStatus, status)
	}

	var item models.WorkOrderItem
	require.NoError(t, db.First(&item, "id = ?", itemID).Error)
	assert.Equal(t, models.ItemStatusPending, item.Status)
}

func TestUpdateItemStatusScopedToShop(t *testing.T) {
	svc, shop, db := newOrderService(t)
	other := createShop(t, db, "valley")
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	_, err = svc.UpdateItemStatus(ctx, other.ID, res.WorkOrder.Items[0].ID, models.ItemStatusDone)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSetWorkOrderStatusRejectsPickup(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	_, err = svc.SetWorkOrderStatus(ctx, shop.ID, res.WorkOrder.ID, models.OrderStatusPickedUp)
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestMarkPickedUp(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	order, err := svc.MarkPickedUp(ctx, shop.ID, res.WorkOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPickedUp, order.Status)
	assert.NotNil(t, order.PickedUpAt)
	for _, item := range order.Items {
		assert.Equal(t, models.ItemStatusPickedUp, item.Status)
	}

	_, err = svc.MarkPickedUp(ctx, shop.ID, res.WorkOrder.ID)
	assert.ErrorIs(t, err, ErrAlreadyPickedUp)

	_, err = svc.UpdateItemStatus(ctx, shop.ID, res.WorkOrder.Items[0].ID, models.ItemStatusDone)
	assert.ErrorIs(t, err, ErrAlreadyPickedUp)

	_, err = svc.SetWorkOrderStatus(ctx, shop.ID, res.WorkOrder.ID, models.OrderStatusDone)
	assert.ErrorIs(t, err, ErrAlreadyPickedUp)
}

func TestDailyLimitSequential(t *testing.T) {
	svc, shop, db := newOrderService(t)
	setMaxDaily(t, db, 2, models.LimitScopeCustomer)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
		require.NoError(t, err)
		require.True(t, res.Created)
		_, err = svc.MarkPickedUp(ctx, shop.ID, res.WorkOrder.ID)
		require.NoError(t, err)
	}

	_, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	var limitErr *DailyLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Limit)
	assert.Contains(t, limitErr.Error(), "2")

	var orders int64
	db.Model(&models.WorkOrder{}).Count(&orders)
	assert.Equal(t, int64(2), orders)
}

func TestDailyLimitSkipsStaffAndMerges(t *testing.T) {
	svc, shop, db := newOrderService(t)
	setMaxDaily(t, db, 1, models.LimitScopeCustomer)
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	// Appending to the open order creates nothing, so the cap does not apply.
	_, err = svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("wax")))
	require.NoError(t, err)

	_, err = svc.MarkPickedUp(ctx, shop.ID, res.WorkOrder.ID)
	require.NoError(t, err)

	promised := time.Now().Add(48 * time.Hour).UTC()
	staff, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, &MergeInput{
		Customer: janeDoe(), Items: []dto.EquipmentInput{atomicSkis("tune")},
		PromisedBy: &promised, Notes: "walk-in",
	})
	require.NoError(t, err)
	assert.True(t, staff.Created)
	assert.False(t, staff.WorkOrder.CustomerCreated)
	assert.Equal(t, "walk-in", staff.WorkOrder.Notes)
	require.NotNil(t, staff.WorkOrder.PromisedBy)
}

func TestDailyLimitConcurrentShopWide(t *testing.T) {
	svc, shop, db := newOrderService(t)
	setMaxDaily(t, db, 2, models.LimitScopeShop)
	ctx := context.Background()

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		limited   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			customer := dto.CustomerInput{
				FirstName: "Rider", LastName: fmt.Sprint(i),
				Email: fmt.Sprintf("rider%d@x.com", i), Phone: fmt.Sprintf("555-000-%04d", i),
			}
			_, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(customer, atomicSkis("tune")))
			mu.Lock()
			defer mu.Unlock()
			var limitErr *DailyLimitError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &limitErr):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, attempts-2, limited)

	var orders int64
	db.Model(&models.WorkOrder{}).Where("customer_created = ?", true).Count(&orders)
	assert.Equal(t, int64(2), orders)
}

func TestDailyLimitConcurrentSameCustomer(t *testing.T) {
	svc, shop, db := newOrderService(t)
	setMaxDaily(t, db, 2, models.LimitScopeCustomer)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
		}()
	}
	wg.Wait()

	var orders int64
	db.Model(&models.WorkOrder{}).Where("customer_created = ?", true).Count(&orders)
	assert.LessOrEqual(t, orders, int64(2))
	var customers int64
	db.Model(&models.Customer{}).Count(&customers)
	assert.Equal(t, int64(1), customers)
}

func TestListWorkOrders(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	a, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)
	bob := dto.CustomerInput{FirstName: "Bob", LastName: "Ray", Email: "bob@x.com", Phone: "555-222-3333"}
	_, err = svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(bob, atomicSkis("wax")))
	require.NoError(t, err)
	_, err = svc.MarkPickedUp(ctx, shop.ID, a.WorkOrder.ID)
	require.NoError(t, err)

	all, total, err := svc.ListWorkOrders(ctx, shop.ID, nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	open, total, err := svc.ListWorkOrders(ctx, shop.ID, []string{models.OrderStatusReceived}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, open, 1)
	assert.Equal(t, "Bob", open[0].Customer.FirstName)

	mine, err := svc.ListCustomerOrders(ctx, shop.ID, a.WorkOrder.CustomerID, []string{models.OrderStatusPickedUp})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.WorkOrder.ID, mine[0].ID)
}

func TestExportWorkOrders(t *testing.T) {
	svc, shop, _ := newOrderService(t)
	ctx := context.Background()

	res, err := svc.ResolveOrMergeWorkOrder(ctx, shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)

	now := time.Now().UTC()
	data, err := svc.ExportWorkOrders(ctx, shop.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Work Order", rows[0][0])
	assert.Equal(t, res.WorkOrder.ID.String(), rows[1][0])
	assert.Equal(t, "Jane Doe", rows[1][3])
	assert.Equal(t, "Atomic", rows[1][12])
}
