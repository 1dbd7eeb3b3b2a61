// internal/handlers/order/handler.go
package order

import (
	"context"
	"fmt"
	"strings"

	"support-router/internal/common/logger"
	"support-router/internal/handlers/refine"
	"support-router/internal/models"
)

// Handler answers order-status questions from an order book.
type Handler struct {
	orders  models.OrderBook
	refiner *refine.Refiner
	logger  logger.Logger
}

// NewHandler keeps a reference to orders, which must not change afterwards. refiner may be nil.
func NewHandler(orders models.OrderBook, refiner *refine.Refiner, log logger.Logger) *Handler {
	return &Handler{
		orders:  orders,
		refiner: refiner,
		logger: log.With(map[string]interface{}{
			"handler": Name,
		}),
	}
}

// ExtractOrderID returns the first ORD-NNNNN in query, ignoring case, or "".
func ExtractOrderID(query string) string {
	return orderIDPattern.FindString(strings.ToUpper(query))
}

// FormatStatus renders the factual status line for an order.
func FormatStatus(o models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (%s) is %s.", o.OrderID, o.ItemNames(), o.Status)
	if o.Tracking != "" {
		fmt.Fprintf(&b, " Tracking: %s.", o.Tracking)
	}
	if o.DeliveryDate != "" {
		fmt.Fprintf(&b, " Expected delivery: %s.", o.DeliveryDate)
	}
	return b.String()
}

// NotFoundMessage names the missing id and a support contact.
func NotFoundMessage(orderID string) string {
	return fmt.Sprintf(notFoundFormat, orderID)
}

// Handle looks up the hinted order id, or the one found in query when hint is empty.
func (h *Handler) Handle(ctx context.Context, query, hint string) models.HandlerOutcome {
	orderID := strings.ToUpper(strings.TrimSpace(hint))
	if orderID == "" {
		orderID = ExtractOrderID(query)
	}

	if orderID == "" {
		h.logger.Debug("no order id in query", nil)
		return models.HandlerOutcome{
			Success:            false,
			Message:            MissingIDMessage,
			NeedsClarification: true,
		}
	}

	order, ok := h.orders.Lookup(orderID)
	if !ok {
		h.logger.Info("order not found", map[string]interface{}{"orderId": orderID})
		return models.HandlerOutcome{Success: false, Message: NotFoundMessage(orderID)}
	}

	res := h.refiner.Refine(ctx, query, FormatStatus(order))
	h.logger.Debug("order found", map[string]interface{}{
		"orderId":   orderID,
		"status":    order.Status,
		"rewritten": res.Rewritten,
	})

	return models.HandlerOutcome{
		Success: true,
		Message: res.Text,
		Data:    order.AsMap(),
	}
}
