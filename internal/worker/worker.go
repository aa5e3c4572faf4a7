package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/AndreyProgger/Test-task2/internal/cache"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
	"github.com/AndreyProgger/Test-task2/internal/repo"
)

// Worker consumes the domain events the API publishes and runs the slow side
// effects: PDF/email reports, search indexing and the remote API call. Every
// handler is best-effort; a failure is logged and the event is dropped.
type Worker struct {
	Orders  *repo.OrderRepo
	Users   *repo.UserRepo
	Catalog *repo.CatalogRepo

	Cache   *cache.Cache
	Mailer  *Mailer
	Indexer *Indexer

	RemoteAPIURL string
	PDFDir       string

	Log *slog.Logger
}

type orderEvent struct {
	OrderID uint `json:"orderID"`
	UserID  uint `json:"userID"`
}

type productEvent struct {
	ProductID uint `json:"productID"`
}

func (w *Worker) HandleOrderEvent(ctx context.Context, env mykafka.Envelope) error {
	var ev orderEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}

	switch env.EventType {
	case mykafka.EventOrderCreated:
		return w.emailOrderReport(ctx, ev.OrderID)
	case mykafka.EventOrderShipped:
		return w.callRemoteAPI(ctx)
	default:
		return nil
	}
}

func (w *Worker) HandleProductEvent(ctx context.Context, env mykafka.Envelope) error {
	if w.Indexer == nil {
		return nil
	}

	var ev productEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}

	switch env.EventType {
	case mykafka.EventProductCreated, mykafka.EventProductUpdated:
		product, err := w.Catalog.Get(ctx, ev.ProductID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", ev.ProductID, err)
		}
		return w.Indexer.Index(ctx, product)
	case mykafka.EventProductDeleted:
		return w.Indexer.Delete(ctx, ev.ProductID)
	default:
		return nil
	}
}

func (w *Worker) emailOrderReport(ctx context.Context, orderID uint) error {
	if w.Mailer == nil {
		return nil
	}

	order, err := w.Orders.FetchWithItems(w.Orders.DB.WithContext(ctx), orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	user, err := w.Users.Get(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", order.UserID, err)
	}

	dir := w.PDFDir
	if dir == "" {
		dir = os.TempDir()
	}
	pdfPath, err := GenerateOrderPDF(dir, order)
	if err != nil {
		return err
	}

	if err := w.Mailer.SendOrderDetails(user.Email, order, pdfPath); err != nil {
		return err
	}
	w.Log.Info("order report sent", "order_id", order.ID, "to", user.Email)
	return nil
}
