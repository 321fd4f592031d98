package document

import (
	"encoding/hex"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// renderReceipt comprobante A4 de la firma: documento, digest (con QR),
// hora declarada, tamaño de la firma y datos de revocación.
func renderReceipt(b *bundle) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de firma", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(b))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(detailRows(b)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(revocationRows(b)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(b *bundle) core.Row {
	title := "COMPROBANTE DE FIRMA ELECTRÓNICA"
	if b.signatureFile() == fileTimestamp {
		title = "COMPROBANTE DE SELLO DE TIEMPO"
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New(b.name, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Hora declarada (UTC)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(b.signingTime.Format("02/01/2006 15:04:05"), props.Text{
				Size: 9, Align: align.Right, Top: 7,
			}),
		),
	)
}

func detailRows(b *bundle) []core.Row {
	digest := hex.EncodeToString(b.digest)
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Digest %s:", b.alg), props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
		)),
	}
	for _, chunk := range splitEvery(digest, 64) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	rows = append(rows, row.New(40).Add(
		col.New(4).Add(code.NewQr(digest, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New(fmt.Sprintf("Firma: %s (%d de %d bytes reservados)", b.signatureFile(), len(b.signature), b.placeholder),
				props.Text{Size: 8, Top: 4, Left: 3}),
			text.New("Conserve este paquete junto al documento original.",
				props.Text{Size: 8, Top: 12, Left: 3, Color: colorGray}),
		),
	))
	return rows
}

func revocationRows(b *bundle) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("DATOS DE REVOCACIÓN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	if len(b.revocation) == 0 {
		return append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Sin datos de revocación.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	for _, r := range b.revocation {
		status := nonEmpty(r.Status, "—")
		if r.Error != "" {
			status = "no interpretable"
		}
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(r.File, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(r.Kind, props.Text{Size: 8, Top: 1, Align: align.Center})),
			col.New(4).Add(text.New(status, props.Text{Size: 8, Top: 1, Align: align.Right})),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
