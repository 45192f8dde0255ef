package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator renders a booking invoice and returns the generated filename
// (interface kept small so it can be stubbed in tests).
type Generator interface {
	GenerateInvoice(data InvoiceData) (string, error)
}

type InvoiceData struct {
	SessionID       string
	Store           string
	Product         string
	Details         string
	AppointmentDate string
	AppointmentTime string
	CreatedAt       time.Time
}

// InvoiceGenerator writes invoice PDFs under RootDir.
type InvoiceGenerator struct {
	RootDir  string
	fontName string
}

func NewInvoiceGenerator(rootDir string) *InvoiceGenerator {
	return &InvoiceGenerator{
		RootDir:  filepath.Clean(rootDir),
		fontName: "Helvetica",
	}
}

func (g *InvoiceGenerator) GenerateInvoice(data InvoiceData) (string, error) {
	filename := filepath.Base(fmt.Sprintf("%s.pdf", data.SessionID))
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", data.SessionID), false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ===== Title
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	g.kvLine(pdf, "Invoice ID", data.SessionID)
	g.kvLine(pdf, "Created On", data.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(4)

	// ===== Booking details
	g.sectionTitle(pdf, "Booking")
	g.kvLine(pdf, "Store", data.Store)
	g.kvLine(pdf, "Product", data.Product)
	g.kvLine(pdf, "Details", data.Details)
	g.kvLine(pdf, "Appointment Date", data.AppointmentDate)
	g.kvLine(pdf, "Appointment Time", data.AppointmentTime)
	g.kvLine(pdf, "Status", "Confirmed")
	pdf.Ln(6)
	g.hr(pdf)

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 8, "Thank you for choosing our service.", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return filename, nil
}

// ===== helpers =====

func (g *InvoiceGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create invoices dir: %w", err)
	}
	filename = filepath.Base(filename) // safety
	return filepath.Join(g.RootDir, filename), nil
}

func (g *InvoiceGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *InvoiceGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(55, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *InvoiceGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
