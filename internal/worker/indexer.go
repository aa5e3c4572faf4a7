package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

// Indexer mirrors catalog changes into the search index.
type Indexer struct {
	ES        *elasticsearch.Client
	IndexName string
}

func (i *Indexer) Index(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	res, err := i.ES.Index(
		i.IndexName,
		bytes.NewReader(data),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(product.ID), 10)),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", product.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", product.ID, res.Status())
	}
	return nil
}

func (i *Indexer) Delete(ctx context.Context, productID uint) error {
	res, err := i.ES.Delete(
		i.IndexName,
		strconv.FormatUint(uint64(productID), 10),
		i.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product %d from index: %w", productID, err)
	}
	defer res.Body.Close()
	// 404 means the document was never indexed; nothing to do
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %d from index: %s", productID, res.Status())
	}
	return nil
}
