// Package render turns an agreement template plus signing context into a PDF.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 5.0
)

// AgreementInput carries everything that ends up on the signed document.
// Output is byte-identical for identical input.
type AgreementInput struct {
	DocumentID  string
	GeneratedAt time.Time

	ShopName    string
	ShopAddress string
	ShopPhone   string
	Logo        *Image

	Title        string
	Body         string
	Jurisdiction string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	WorkOrderID   string

	SignerName      string
	Signature       *Image
	SignerIP        string
	SignerUserAgent string
	SignedAt        time.Time
}

// Values returns the placeholder values available to template bodies.
func (in AgreementInput) Values() map[string]string {
	clean := strings.NewReplacer("<", "", ">", "")
	return map[string]string{
		"shop_name":      clean.Replace(in.ShopName),
		"shop_address":   clean.Replace(in.ShopAddress),
		"shop_phone":     clean.Replace(in.ShopPhone),
		"customer_name":  clean.Replace(in.CustomerName),
		"customer_email": clean.Replace(in.CustomerEmail),
		"customer_phone": clean.Replace(in.CustomerPhone),
		"work_order_id":  in.WorkOrderID,
		"signer_name":    clean.Replace(in.SignerName),
		"jurisdiction":   clean.Replace(in.Jurisdiction),
		"date":           in.SignedAt.Format("January 2, 2006"),
		"document_id":    in.DocumentID,
	}
}

type Renderer interface {
	RenderAgreement(ctx context.Context, in AgreementInput) ([]byte, error)
}

type PDFRenderer struct {
	pageSize string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{pageSize: "Letter"}
}

var paragraphs = strings.NewReplacer(
	"<p>", "", "</p>", "<br><br>",
	"<br/>", "<br>", "<br />", "<br>",
	"<strong>", "<b>", "</strong>", "</b>",
	"<em>", "<i>", "</em>", "</i>",
)

func (r *PDFRenderer) RenderAgreement(ctx context.Context, in AgreementInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Signature == nil {
		return nil, ErrInvalidImage
	}

	pdf := fpdf.New("P", "mm", r.pageSize, "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetTitle(in.Title, true)
	pdf.SetAuthor(in.ShopName, true)
	pdf.SetSubject("Work order "+in.WorkOrderID, true)
	pdf.SetCreator("shopservice", false)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 22)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont(fontFamily, "", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(contentW, 4, tr(fmt.Sprintf("Document %s - generated %s",
			in.DocumentID, in.GeneratedAt.UTC().Format(time.RFC3339))), "", 0, "L", false, 0, "")
		pdf.SetX(left)
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	// Header: logo on the left, shop identity on the right.
	top := pdf.GetY()
	if in.Logo != nil {
		opts := fpdf.ImageOptions{ImageType: in.Logo.Type}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(in.Logo.Data))
		pdf.ImageOptions("logo", left, top, 0, 18, false, opts, 0, "")
	}
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(contentW, 7, tr(in.ShopName), "", 1, "R", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	if in.ShopAddress != "" {
		pdf.CellFormat(contentW, 5, tr(in.ShopAddress), "", 1, "R", false, 0, "")
	}
	if in.ShopPhone != "" {
		pdf.CellFormat(contentW, 5, tr(in.ShopPhone), "", 1, "R", false, 0, "")
	}
	if pdf.GetY() < top+20 {
		pdf.SetY(top + 20)
	}

	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(left, pdf.GetY(), pageW-right, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont(fontFamily, "B", 16)
	pdf.MultiCell(contentW, 8, tr(in.Title), "", "C", false)
	if in.Jurisdiction != "" {
		pdf.SetFont(fontFamily, "I", 9)
		pdf.CellFormat(contentW, 5, tr("Governing jurisdiction: "+in.Jurisdiction), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Customer and order details.
	pdf.SetFont(fontFamily, "", 10)
	details := [][2]string{
		{"Customer", in.CustomerName},
		{"Email", in.CustomerEmail},
		{"Phone", in.CustomerPhone},
		{"Work order", in.WorkOrderID},
	}
	for _, d := range details {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.CellFormat(30, 6, tr(d[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 10)
		pdf.CellFormat(contentW-30, 6, tr(d[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Agreement body.
	body := NormalizeText(Substitute(in.Body, in.Values()))
	body = paragraphs.Replace(body)
	pdf.SetFont(fontFamily, "", 10)
	html := pdf.HTMLBasicNew()
	html.Write(lineHeight, tr(body))
	pdf.Ln(10)

	// Signature block stays on one page.
	if pdf.GetY()+48 > pageH-bottom {
		pdf.AddPage()
	}
	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(contentW, 6, "Signature", "", 1, "L", false, 0, "")

	sigY := pdf.GetY()
	sigOpts := fpdf.ImageOptions{ImageType: in.Signature.Type}
	pdf.RegisterImageOptionsReader("signature", sigOpts, bytes.NewReader(in.Signature.Data))
	pdf.ImageOptions("signature", left, sigY, 0, 22, false, sigOpts, 0, "")
	pdf.SetY(sigY + 23)
	pdf.Line(left, pdf.GetY(), left+80, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 9)
	pdf.CellFormat(contentW, 5, tr("Signed by: "+in.SignerName), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Signed at: "+in.SignedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 7)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(contentW, 4, tr("IP address: "+in.SignerIP), "", 1, "L", false, 0, "")
	pdf.MultiCell(contentW, 4, tr("User agent: "+in.SignerUserAgent), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render agreement pdf: %w", err)
	}
	return buf.Bytes(), nil
}
