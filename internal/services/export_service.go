package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Work Orders"

var exportHeaders = []interface{}{
	"Work Order", "Created", "Status", "Customer", "Email", "Phone",
	"Self-Service", "Promised By", "Completed", "Picked Up",
	"Item", "Type", "Brand", "Model", "Length", "Service", "Item Status",
}

// ExportWorkOrders writes the shop's orders created in [from, to) as an
// XLSX workbook, one row per item.
func (s *WorkOrderService) ExportWorkOrders(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]byte, error) {
	var orders []models.WorkOrder
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForShop(shopID)).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Preload("Customer").
		Preload("Items", orderedItems).
		Preload("Items.Equipment").
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, infraError("load work orders for export", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare export sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(exportSheet, "A1", "Q1", style)
	}

	row := 2
	for _, order := range orders {
		base := orderColumns(&order)
		if len(order.Items) == 0 {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(exportSheet, cell, &base); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
			row++
			continue
		}
		for _, item := range order.Items {
			values := append(append([]interface{}{}, base...), itemColumns(&item)...)
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write export row: %w", err)
			}
			row++
		}
	}

	f.SetColWidth(exportSheet, "A", "A", 38)
	f.SetColWidth(exportSheet, "D", "E", 25)
	f.SetColWidth(exportSheet, "K", "K", 38)
	f.SetColWidth(exportSheet, "P", "P", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return buf.Bytes(), nil
}

func orderColumns(o *models.WorkOrder) []interface{} {
	var name, email, phone string
	if o.Customer != nil {
		name, email, phone = o.Customer.FullName(), o.Customer.Email, o.Customer.Phone
	}
	return []interface{}{
		o.ID.String(), formatTime(&o.CreatedAt), o.Status, name, email, phone,
		yesNo(o.CustomerCreated), formatTime(o.PromisedBy), formatTime(o.CompletedAt), formatTime(o.PickedUpAt),
	}
}

func itemColumns(item *models.WorkOrderItem) []interface{} {
	var typ, brand, model, length string
	if e := item.Equipment; e != nil {
		typ, brand, model = e.Type, e.Brand, e.Model
		if e.Length != nil {
			length = fmt.Sprintf("%d", *e.Length)
		}
	}
	return []interface{}{
		item.EquipmentID.String(), typ, brand, model, length, item.ServiceType, item.Status,
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
