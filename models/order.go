package models

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/stock_ledger/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Order struct {
	ID           string          `gorm:"primaryKey;size:64" json:"id"`
	Date         string          `gorm:"size:10;index;not null" json:"date"`
	ExpectedDate string          `gorm:"size:10" json:"expected_date"`
	Type         OrderType       `gorm:"type:enum('PURCHASE','SALES');not null" json:"type"`
	Status       OrderStatus     `gorm:"type:enum('PENDING','COMPLETED','CANCELLED');default:PENDING;not null;index" json:"status"`
	PartyName    string          `gorm:"size:200" json:"party_name"`
	OrderNumber  string          `gorm:"size:100" json:"order_number"`
	Items        []OrderLineItem `gorm:"foreignKey:OrderId;references:ID" json:"items"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Position     int             `gorm:"index;not null;default:0" json:"-"`
}

type OrderLineItem struct {
	OrderId   string          `gorm:"primaryKey;size:64" json:"-"`
	SeqNo     int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProductId string          `gorm:"index;size:64" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Unit      string          `gorm:"size:50" json:"unit"`
	Factor    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"factor"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
}

// PipelineStock is the quantity implied by pending orders, in base units.
type PipelineStock struct {
	Incoming  decimal.Decimal `json:"incoming"`
	Committed decimal.Decimal `json:"committed"`
}

func (o Order) clone() Order {
	if o.Items != nil {
		items := make([]OrderLineItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// OrderTotal is Σ quantity × factor × price.
func OrderTotal(items []OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.Factor).Mul(item.Price))
	}
	return total
}

func (s *Snapshot) orderIndex(id string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return i
		}
	}
	return -1
}

// PipelineStock scans pending orders on every call.
func (s *Snapshot) PipelineStock(productId string) PipelineStock {
	result := PipelineStock{Incoming: decimal.Zero, Committed: decimal.Zero}
	for _, order := range s.Orders {
		if order.Status != OrderStatusPending {
			continue
		}
		for _, item := range order.Items {
			if item.ProductId != productId {
				continue
			}
			qty := item.Quantity.Mul(item.Factor)
			switch order.Type {
			case OrderTypePurchase:
				result.Incoming = result.Incoming.Add(qty)
			case OrderTypeSales:
				result.Committed = result.Committed.Add(qty)
			}
		}
	}
	return result
}

// Available is physical stock minus quantity committed to pending sales. May be negative.
func (s *Snapshot) Available(product *Product) decimal.Decimal {
	return product.Stock.Sub(s.PipelineStock(product.ID).Committed)
}

func (inv *Inventory) PipelineStock(productId string) PipelineStock {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.PipelineStock(productId)
}

func (inv *Inventory) Available(product *Product) decimal.Decimal {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.state.Available(product)
}

func (inv *Inventory) GetOrder(id string) (*Order, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return getOrder(inv.state, id)
}

func (tx *InventoryTx) GetOrder(id string) (*Order, error) {
	return getOrder(tx.state(), id)
}

func getOrder(s *Snapshot, id string) (*Order, error) {
	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, id)
	}
	result := s.Orders[i].clone()
	return &result, nil
}

// GetOrders returns orders newest-first.
func (inv *Inventory) GetOrders() []Order {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	results := make([]Order, len(inv.state.Orders))
	for i := range inv.state.Orders {
		results[i] = inv.state.Orders[i].clone()
	}
	return results
}

// AddOrder stores o as PENDING regardless of its status. Stock is untouched.
func (tx *InventoryTx) AddOrder(o Order) (*Order, error) {
	o = o.clone()
	o.ID = strings.TrimSpace(o.ID)
	if o.ID == "" {
		o.ID = tx.inv.newId()
	}
	if !o.Type.IsValid() {
		return nil, fmt.Errorf("%w: order type %q", ErrInvalidInput, o.Type)
	}
	s := tx.state()
	if s.orderIndex(o.ID) >= 0 {
		return nil, fmt.Errorf("%w: order %s", ErrDuplicateId, o.ID)
	}
	for i := range o.Items {
		if !o.Items[i].Factor.IsPositive() {
			return nil, fmt.Errorf("%w: factor of line %d must be greater than zero", ErrInvalidConversion, i+1)
		}
		o.Items[i].OrderId = o.ID
		o.Items[i].SeqNo = i
	}
	o.Status = OrderStatusPending

	s.Orders = append([]Order{o}, s.Orders...)

	config.LogInfo(config.GetLogger(), "Order", "AddOrder", "order added", logrus.Fields{"order_id": o.ID, "type": o.Type})
	result := o.clone()
	return &result, nil
}

// UpdateOrderStatus moves a PENDING order to COMPLETED or CANCELLED.
func (tx *InventoryTx) UpdateOrderStatus(id string, status OrderStatus) (*Order, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: target status %q", ErrInvalidTransition, status)
	}
	s := tx.state()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, id)
	}
	if s.Orders[i].Status != OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, id, s.Orders[i].Status)
	}
	s.Orders[i].Status = status

	config.LogInfo(config.GetLogger(), "Order", "UpdateOrderStatus", "order status changed", logrus.Fields{"order_id": id, "status": status})
	result := s.Orders[i].clone()
	return &result, nil
}
