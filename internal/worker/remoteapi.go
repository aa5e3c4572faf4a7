package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AndreyProgger/Test-task2/internal/cache"
)

// callRemoteAPI fetches the configured remote endpoint when an order ships
// and caches the response; a fresh cache entry short-circuits the call.
func (w *Worker) callRemoteAPI(ctx context.Context) error {
	if w.Cache == nil || w.RemoteAPIURL == "" {
		return nil
	}

	if _, ok, err := w.Cache.GetRaw(ctx, cache.KeyAPICache); err != nil {
		return err
	} else if ok {
		w.Log.Debug("remote api response served from cache")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.RemoteAPIURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("remote api: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if !json.Valid(body) {
		return fmt.Errorf("remote api: response is not valid json")
	}

	return w.Cache.SetRaw(ctx, cache.KeyAPICache, body, cache.TTLAPICache)
}
