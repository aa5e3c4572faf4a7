package worker

import (
	"fmt"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

// GenerateOrderPDF renders a one-page order report and returns the file path.
func GenerateOrderPDF(dir string, order *models.Order) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Order #%d", order.ID))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Created at: %s", order.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	var total float64
	for _, item := range order.Items {
		name := fmt.Sprintf("product %d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		pdf.Cell(0, 8, fmt.Sprintf("%s x%d - %.2f", name, item.Quantity, item.Price))
		pdf.Ln(8)
		total += item.Price
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total due: %.2f", total))

	path := filepath.Join(dir, fmt.Sprintf("order-%d.pdf", order.ID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}
