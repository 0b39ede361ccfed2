// Package pdf renders offers to PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   string
	Total       string
}

type SellerData struct {
	Name        string
	TaxID       string
	Address     string
	Email       string
	Phone       string
	BankAccount string
	LogoPath    string // absolute path, optional
}

type ClientData struct {
	Name     string
	Company  string
	Email    string
	Position string
}

type OfferData struct {
	OfferNumber     string
	CreatedDate     string
	ValidUntil      string
	Description     string
	Seller          SellerData
	Client          ClientData
	Items           []LineItem
	Total           string
	PaymentMethod   string
	PaymentDeadline string // e.g. "14 days"
}

// OfferPDF renders the offer to a PDF byte slice. A missing or unreadable
// logo degrades to a document without it; it never fails the render.
func OfferPDF(d OfferData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	if d.Seller.LogoPath != "" {
		if _, err := os.Stat(d.Seller.LogoPath); err == nil {
			pdf.ImageOptions(d.Seller.LogoPath, 160, 10, 35, 0, false,
				gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 12, "Offer "+d.OfferNumber)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 6, "Date: "+d.CreatedDate)
	pdf.Ln(6)
	pdf.Cell(60, 6, "Valid until: "+d.ValidUntil)
	pdf.Ln(10)

	// seller / client blocks side by side
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, "Seller")
	pdf.Cell(95, 6, "Client")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	sellerLines := []string{d.Seller.Name, d.Seller.Address, d.Seller.TaxID, d.Seller.Email, d.Seller.Phone}
	clientLines := []string{d.Client.Name, d.Client.Company, d.Client.Position, d.Client.Email}
	for i := 0; i < len(sellerLines) || i < len(clientLines); i++ {
		var s, c string
		if i < len(sellerLines) {
			s = sellerLines[i]
		}
		if i < len(clientLines) {
			c = clientLines[i]
		}
		pdf.Cell(95, 5, s)
		pdf.Cell(95, 5, c)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	if d.Description != "" {
		pdf.MultiCell(190, 5, d.Description, "", "L", false)
		pdf.Ln(4)
	}

	// items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(95, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Total", "1", 0, "R", true, 0, "")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	for _, it := range d.Items {
		pdf.CellFormat(95, 7, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, it.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, it.Total, "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(150, 8, "Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, d.Total, "1", 0, "R", true, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if d.PaymentMethod != "" {
		pdf.Cell(100, 5, "Payment method: "+d.PaymentMethod)
		pdf.Ln(5)
	}
	if d.PaymentDeadline != "" {
		pdf.Cell(100, 5, "Payment deadline: "+d.PaymentDeadline)
		pdf.Ln(5)
	}
	if d.Seller.BankAccount != "" {
		pdf.Cell(100, 5, "Bank account: "+d.Seller.BankAccount)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render offer pdf: %w", err)
	}
	return buf.Bytes(), nil
}
