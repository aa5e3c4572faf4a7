package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
)

const publishTimeout = 5 * time.Second

// KafkaNotifier publishes order events after commit. Delivery failures are
// logged and swallowed: retrying is the consumer side's business.
type KafkaNotifier struct {
	Producer *mykafka.Producer
	Log      *slog.Logger
}

func (n *KafkaNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"price":      item.Price,
		})
	}
	n.publish(ctx, fmt.Sprint(order.UserID), map[string]any{
		"type":    mykafka.EventOrderCreated,
		"orderID": order.ID,
		"userID":  order.UserID,
		"items":   items,
	})
}

func (n *KafkaNotifier) OrderCancelled(ctx context.Context, orderID, userID uint) {
	n.publish(ctx, fmt.Sprint(userID), map[string]any{
		"type":    mykafka.EventOrderCancelled,
		"orderID": orderID,
		"userID":  userID,
	})
}

func (n *KafkaNotifier) OrderStatusChanged(ctx context.Context, orderID uint, status string) {
	n.publish(ctx, fmt.Sprint(orderID), map[string]any{
		"type":    mykafka.EventOrderStatusChanged,
		"orderID": orderID,
		"status":  status,
	})
}

func (n *KafkaNotifier) OrderShipped(ctx context.Context, orderID uint) {
	n.publish(ctx, fmt.Sprint(orderID), map[string]any{
		"type":    mykafka.EventOrderShipped,
		"orderID": orderID,
	})
}

func (n *KafkaNotifier) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, key, event); err != nil {
		n.Log.Error("kafka publish error", "event_type", event["type"], "error", err)
	}
}
