package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MergeInput is one submission after validation. Public submissions set
// CustomerCreated; staff intake does not and may carry scheduling details.
type MergeInput struct {
	Customer        dto.CustomerInput
	Items           []dto.EquipmentInput
	CustomerCreated bool
	PromisedBy      *time.Time
	Notes           string
}

// MergeResult is the order the submission landed on. Submitted holds only
// the items this submission touched.
type MergeResult struct {
	WorkOrder *models.WorkOrder
	Created   bool
	Submitted []models.WorkOrderItem
}

type WorkOrderService struct {
	db    *gorm.DB
	guard *DailyLimitGuard
	now   func() time.Time
}

func NewWorkOrderService(db *gorm.DB, guard *DailyLimitGuard) *WorkOrderService {
	return &WorkOrderService{db: db, guard: guard, now: time.Now}
}

// ResolveOrMergeWorkOrder resolves the customer, deduplicates the items and
// attaches them to the customer's most recent open order, creating one when
// none is open. Everything commits or nothing does.
func (s *WorkOrderService) ResolveOrMergeWorkOrder(ctx context.Context, shopID uuid.UUID, in *MergeInput) (*MergeResult, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	result, err := s.resolveOrMerge(ctx, shopID, in)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent submission created the same customer first.
		result, err = s.resolveOrMerge(ctx, shopID, in)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, infraError("resolve customer", err)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("work order submission processed",
		"shop_id", shopID,
		"work_order_id", result.WorkOrder.ID,
		"customer_id", result.WorkOrder.CustomerID,
		"created", result.Created,
		"items", len(in.Items),
		"customer_created", in.CustomerCreated,
	)
	return result, nil
}

func (s *WorkOrderService) resolveOrMerge(ctx context.Context, shopID uuid.UUID, in *MergeInput) (*MergeResult, error) {
	result := &MergeResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := resolveCustomer(tx, shopID, &in.Customer)
		if err != nil {
			return err
		}

		order, err := latestOpenOrder(tx, customer.ID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if order == nil {
			if in.CustomerCreated {
				if err := s.guard.Check(tx, shopID, customer.ID); err != nil {
					return err
				}
			}
			order = &models.WorkOrder{
				ShopID:          shopID,
				CustomerID:      customer.ID,
				Status:          models.OrderStatusReceived,
				CustomerCreated: in.CustomerCreated,
				PromisedBy:      in.PromisedBy,
				Notes:           strings.TrimSpace(in.Notes),
			}
			if err := tx.Create(order).Error; err != nil {
				return infraError("create work order", err)
			}
			result.Created = true
		} else if in.PromisedBy != nil || strings.TrimSpace(in.Notes) != "" {
			if in.PromisedBy != nil {
				order.PromisedBy = in.PromisedBy
			}
			order.Notes = appendNotes(order.Notes, in.Notes)
			if err := tx.Model(order).Select("promised_by", "notes").Updates(order).Error; err != nil {
				return infraError("update work order", err)
			}
		}

		inv, err := loadInventory(tx, customer.ID)
		if err != nil {
			return err
		}
		touched := make(map[uuid.UUID]struct{}, len(in.Items))
		for i := range in.Items {
			item, err := attachItem(tx, inv, order.ID, &in.Items[i])
			if err != nil {
				return err
			}
			touched[item.ID] = struct{}{}
		}

		if err := rollUpStatus(tx, order.ID, now); err != nil {
			return err
		}

		loaded, err := loadWorkOrder(tx, shopID, order.ID)
		if err != nil {
			return err
		}
		for _, item := range loaded.Items {
			if _, ok := touched[item.ID]; ok {
				result.Submitted = append(result.Submitted, item)
			}
		}
		loaded.Customer = customer
		result.WorkOrder = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// attachItem resolves the equipment and puts it on orderID. Equipment
// already on the order gets the new service request and starts over as
// PENDING; rows on earlier orders are left as they were.
func attachItem(tx *gorm.DB, inv *inventory, orderID uuid.UUID, in *dto.EquipmentInput) (*models.WorkOrderItem, error) {
	var bootID *uuid.UUID
	if in.Boot != nil {
		boot, err := inv.resolveBoot(tx, in.Boot)
		if err != nil {
			return nil, err
		}
		bootID = &boot.ID
	}

	candidate := newEquipment(inv.customerID, in)
	equipment := inv.matchEquipment(candidate)
	if equipment == nil {
		candidate.BootID = bootID
		if err := tx.Create(candidate).Error; err != nil {
			return nil, infraError("create equipment", err)
		}
		inv.equipment = append(inv.equipment, candidate)
		equipment = candidate
	} else {
		applyEquipmentDetails(equipment, in)
		if bootID != nil {
			equipment.BootID = bootID
		}
		if err := tx.Save(equipment).Error; err != nil {
			return nil, infraError("update equipment", err)
		}
	}

	var item models.WorkOrderItem
	err := tx.Where("work_order_id = ? AND equipment_id = ?", orderID, equipment.ID).First(&item).Error
	if err == nil {
		item.ServiceType = in.ServiceType
		item.Status = models.ItemStatusPending
		if err := tx.Model(&item).Select("service_type", "status").Updates(&item).Error; err != nil {
			return nil, infraError("update work order item", err)
		}
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infraError("load work order item", err)
	}

	var position int64
	if err := tx.Model(&models.WorkOrderItem{}).Where("work_order_id = ?", orderID).Count(&position).Error; err != nil {
		return nil, infraError("count work order items", err)
	}
	item = models.WorkOrderItem{
		WorkOrderID: orderID,
		EquipmentID: equipment.ID,
		ServiceType: in.ServiceType,
		Status:      models.ItemStatusPending,
		Position:    int(position),
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, infraError("create work order item", err)
	}
	return &item, nil
}

func latestOpenOrder(tx *gorm.DB, customerID uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := tx.Where("customer_id = ? AND status <> ?", customerID, models.OrderStatusPickedUp).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, infraError("load open work order", err)
	}
	return &order, nil
}

// rollUpStatus recomputes the derived status after the item set changed.
func rollUpStatus(tx *gorm.DB, orderID uuid.UUID, now time.Time) error {
	var order models.WorkOrder
	if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return infraError("load work order", err)
	}
	next := models.DeriveStatus(order.Status, order.Items)
	if next == order.Status {
		return nil
	}
	updates := map[string]interface{}{"status": next}
	if next == models.OrderStatusDone {
		updates["completed_at"] = now
	}
	if err := tx.Model(&models.WorkOrder{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return infraError("update work order status", err)
	}
	return nil
}

func loadWorkOrder(tx *gorm.DB, shopID, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := tx.Scopes(tenant.ForShop(shopID)).
		Preload("Customer").
		Preload("Items", orderedItems).
		Preload("Items.Equipment").
		Preload("Items.Equipment.Boot").
		Preload("NoteEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkOrderNotFound
	}
	if err != nil {
		return nil, infraError("load work order", err)
	}
	return &order, nil
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// lockWorkOrder loads the shop's order with a row lock and no associations.
func lockWorkOrder(tx *gorm.DB, shopID, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.ForShop(shopID)).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkOrderNotFound
	}
	if err != nil {
		return nil, infraError("load work order", err)
	}
	return &order, nil
}

func appendNotes(existing, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return existing
	}
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}

func (s *WorkOrderService) GetWorkOrder(ctx context.Context, shopID, id uuid.UUID) (*models.WorkOrder, error) {
	return loadWorkOrder(s.db.WithContext(ctx), shopID, id)
}

// ListWorkOrders pages through the shop's orders, newest first. An empty
// status list means all statuses.
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, shopID uuid.UUID, statuses []string, limit, offset int) ([]models.WorkOrder, int64, error) {
	var orders []models.WorkOrder
	var total int64

	query := s.db.WithContext(ctx).Model(&models.WorkOrder{}).Scopes(tenant.ForShop(shopID))
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, infraError("count work orders", err)
	}

	err := query.Preload("Customer").Preload("Items", orderedItems).Preload("Items.Equipment").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, infraError("list work orders", err)
	}
	return orders, total, nil
}

// ListCustomerOrders returns a customer's orders in the given statuses.
func (s *WorkOrderService) ListCustomerOrders(ctx context.Context, shopID, customerID uuid.UUID, statuses []string) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	query := s.db.WithContext(ctx).Scopes(tenant.ForShop(shopID)).Where("customer_id = ?", customerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Preload("Items", orderedItems).Preload("Items.Equipment").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, infraError("list customer work orders", err)
	}
	return orders, nil
}

// SetWorkOrderStatus is the staff override for the intermediate statuses.
// Pickup has its own action.
func (s *WorkOrderService) SetWorkOrderStatus(ctx context.Context, shopID, id uuid.UUID, status string) (*models.WorkOrder, error) {
	switch status {
	case models.OrderStatusReceived, models.OrderStatusInProgress, models.OrderStatusDone:
	default:
		return nil, ErrInvalidOrderStatus
	}

	var order *models.WorkOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockWorkOrder(tx, shopID, id)
		if err != nil {
			return err
		}
		if !locked.IsOpen() {
			return ErrAlreadyPickedUp
		}
		updates := map[string]interface{}{"status": status}
		if status == models.OrderStatusDone && locked.CompletedAt == nil {
			updates["completed_at"] = s.now().UTC()
		}
		if err := tx.Model(locked).Updates(updates).Error; err != nil {
			return infraError("update work order status", err)
		}
		order, err = loadWorkOrder(tx, shopID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateItemStatus moves one item through PENDING, IN_PROGRESS and DONE and
// rolls the order status up. PICKED_UP is reserved for MarkPickedUp.
func (s *WorkOrderService) UpdateItemStatus(ctx context.Context, shopID, itemID uuid.UUID, status string) (*models.WorkOrder, error) {
	switch status {
	case models.ItemStatusPending, models.ItemStatusInProgress, models.ItemStatusDone:
	default:
		return nil, ErrInvalidItemStatus
	}

	var order *models.WorkOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.WorkOrderItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return infraError("load work order item", err)
		}

		locked, err := lockWorkOrder(tx, shopID, item.WorkOrderID)
		if errors.Is(err, ErrWorkOrderNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}
		if !locked.IsOpen() {
			return ErrAlreadyPickedUp
		}

		if err := tx.Model(&item).Update("status", status).Error; err != nil {
			return infraError("update item status", err)
		}
		if err := rollUpStatus(tx, locked.ID, s.now().UTC()); err != nil {
			return err
		}
		order, err = loadWorkOrder(tx, shopID, locked.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPickedUp is the only transition into PICKED_UP. It closes the order
// and all of its items.
func (s *WorkOrderService) MarkPickedUp(ctx context.Context, shopID, id uuid.UUID) (*models.WorkOrder, error) {
	var order *models.WorkOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockWorkOrder(tx, shopID, id)
		if err != nil {
			return err
		}
		if !locked.IsOpen() {
			return ErrAlreadyPickedUp
		}

		now := s.now().UTC()
		if err := tx.Model(&models.WorkOrderItem{}).Where("work_order_id = ?", id).
			Update("status", models.ItemStatusPickedUp).Error; err != nil {
			return infraError("update item status", err)
		}
		updates := map[string]interface{}{
			"status":       models.OrderStatusPickedUp,
			"picked_up_at": now,
		}
		if locked.CompletedAt == nil {
			updates["completed_at"] = now
		}
		if err := tx.Model(locked).Updates(updates).Error; err != nil {
			return infraError("update work order status", err)
		}
		order, err = loadWorkOrder(tx, shopID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("work order picked up", "shop_id", shopID, "work_order_id", id)
	return order, nil
}
