// Package pdf genera el comprobante imprimible de una transacción del ledger.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + NIT       │  Tipo + N° + Fecha           │
//	│  REGISTRADO POR / NOTA                                       │
//	│  TABLA: # | Bodega | Ítem | Rol | Cantidad | Unidad          │
//	│  TOTAL por ítem                                              │
//	│  FOOTER: QR con el ID de la transacción                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var typeLabels = map[entity.TransactionType]string{
	entity.TransactionInbound:  "ENTRADA DE INVENTARIO",
	entity.TransactionOutbound: "SALIDA DE INVENTARIO",
	entity.TransactionTransfer: "TRANSFERENCIA ENTRE BODEGAS",
}

// ReceiptRenderer arma el comprobante con Maroto v2.
type ReceiptRenderer struct{}

func NewReceiptRenderer() *ReceiptRenderer { return &ReceiptRenderer{} }

// RenderTransaction genera el PDF y devuelve sus bytes.
func (r *ReceiptRenderer) RenderTransaction(_ context.Context, company *entity.Company, tx *dto.TransactionResponse) ([]byte, error) {
	if company == nil || tx == nil {
		return nil, fmt.Errorf("pdf: empresa y transacción son obligatorias")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante "+tx.ID, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(company, tx))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(actorRow(tx))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(tx.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRows(tx.Lines)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(tx))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(company *entity.Company, tx *dto.TransactionResponse) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("NIT: "+nonEmpty(company.TaxID, "—"), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(nonEmpty(typeLabels[entity.TransactionType(tx.Type)], tx.Type), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(tx.ID), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+tx.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func actorRow(tx *dto.TransactionResponse) core.Row {
	who := nonEmpty(tx.CreatedBy.Name, tx.CreatedBy.ID)
	if tx.CreatedBy.Email != "" {
		who += " <" + tx.CreatedBy.Email + ">"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("REGISTRADO POR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(who, props.Text{Size: 9, Top: 6}),
			text.New("Nota: "+nonEmpty(tx.Note, "—"), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Bodega", 3, align.Left),
		h("Ítem", 4, align.Left),
		h("Rol", 1, align.Center),
		h("Cantidad", 2, align.Right),
		h("Unidad", 1, align.Left),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func lineRows(lines []dto.TransactionLineResponse) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprint(l.Position+1), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(3).Add(text.New(l.Warehouse.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(l.Item.SKU+" · "+l.Item.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(roleLabel(l.Role), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatQuantity(l.SignedQuantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.Item.Unit, props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	return out
}

// totalRows cantidad movida por ítem, en el orden de aparición. En una transferencia cuenta solo el destino.
func totalRows(lines []dto.TransactionLineResponse) []core.Row {
	type total struct {
		item dto.ItemRef
		qty  decimal.Decimal
	}
	var order []string
	totals := map[string]*total{}
	for _, l := range lines {
		if entity.LineRole(l.Role) == entity.LineSource {
			continue
		}
		t, ok := totals[l.Item.ID]
		if !ok {
			t = &total{item: l.Item}
			totals[l.Item.ID] = t
			order = append(order, l.Item.ID)
		}
		t.qty = t.qty.Add(l.Quantity)
	}
	out := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New("TOTAL POR ÍTEM", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))}
	for _, id := range order {
		t := totals[id]
		out = append(out, row.New(5).Add(
			col.New(6),
			col.New(4).Add(text.New(t.item.Name, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})),
			col.New(2).Add(text.New(formatQuantity(t.qty)+" "+t.item.Unit, props.Text{Size: 9, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func footerRow(tx *dto.TransactionResponse) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(tx.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("ID de la transacción:", props.Text{Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3}),
			text.New(tx.ID, props.Text{Size: 8, Top: 9, Left: 3, Color: colorGray}),
			text.New("Los movimientos del ledger son inmutables. Un error se corrige con una transacción compensatoria.",
				props.Text{Size: 7, Top: 18, Left: 3, Color: colorGray}),
		),
	)
}

func roleLabel(role string) string {
	switch entity.LineRole(role) {
	case entity.LineSource:
		return "Origen"
	case entity.LineDestination:
		return "Destino"
	default:
		return ""
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return "N° " + strings.ToUpper(id[:i])
	}
	return "N° " + id
}

// formatQuantity agrupa miles con punto y usa coma decimal. Ej: -1234.5 → "-1.234,5"
func formatQuantity(q decimal.Decimal) string {
	s := q.Abs().String()
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+len(frac)+2)
	if q.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	if frac != "" {
		buf = append(buf, ',')
		buf = append(buf, frac...)
	}
	return string(buf)
}
