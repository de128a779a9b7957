// Package pdf renders the printable clearance certificate. The document
// carries everything a verifier needs offline plus a QR code that links to
// the public verification endpoint.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"cleargate/internal/certificate/models"
	"cleargate/internal/student"
)

// Renderer produces certificate PDFs.
type Renderer struct {
	institution     string
	frontendBaseURL string
}

func NewRenderer(institution, frontendBaseURL string) *Renderer {
	return &Renderer{institution: institution, frontendBaseURL: frontendBaseURL}
}

// VerificationURL is the address encoded into the QR code and printed under
// it.
func (r *Renderer) VerificationURL(cert *models.Certificate) string {
	return fmt.Sprintf("%s/verify/%s", r.frontendBaseURL, cert.Code())
}

// Render produces the certificate document for a student.
func (r *Renderer) Render(cert *models.Certificate, st *student.Student) ([]byte, error) {
	verifyURL := r.VerificationURL(cert)
	qr, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode verification qr: %w", err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Clearance Certificate "+cert.CertificateID, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, r.institution, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 13)
	doc.CellFormat(0, 8, "Office of the Registrar", "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, "CERTIFICATE OF CLEARANCE", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 12)
	doc.MultiCell(0, 7, fmt.Sprintf(
		"This certifies that %s (ID: %s) of the %s department, year %d, "+
			"has been cleared by all required offices of the university.",
		st.DisplayName, st.StudentID, st.Department, st.Year), "", "L", false)
	doc.Ln(6)

	rows := [][2]string{
		{"Certificate No.", cert.CertificateID},
		{"Issued", cert.IssuedAt.Format("2 January 2006")},
		{"Valid Until", cert.ExpiryDate.Format("2 January 2006")},
	}
	doc.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}
	doc.Ln(8)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qr))
	doc.ImageOptions("verify-qr", 80, doc.GetY(), 50, 50, false, opts, 0, "")
	doc.SetY(doc.GetY() + 54)

	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 6, "Scan to verify, or visit:", "", 1, "C", false, 0, "")
	doc.CellFormat(0, 5, verifyURL, "", 1, "C", false, 0, "")
	doc.Ln(4)
	doc.SetFont("Helvetica", "I", 8)
	doc.CellFormat(0, 5, fmt.Sprintf("Generated %s. This certificate expires one month after issuance.",
		time.Now().UTC().Format("2 January 2006 15:04 MST")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
