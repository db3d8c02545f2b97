package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/sales/domain"
)

var orderFields = []string{
	"id", "name", "partner_id", "date_order", "amount_total",
	"invoice_status", "user_id", "team_id",
}

var lineFields = []string{"id", "order_id", "product_id", "product_uom_qty", "price_subtotal"}

var productFields = []string{
	"id", "default_code", "name", "x_studio_lote", "x_studio_destino",
	"x_studio_transporte", "x_studio_comision_agencia", "x_studio_ida_fecha_salida",
	"x_studio_tipo_de_cupo", "x_studio_estado_viaje", "x_studio_boletos_totales",
	"x_studio_boletos_reservados", "x_product_count_pagados_stat_inf",
	"x_studio_boletos_disponibles",
}

// Orders in these states are confirmed sales.
var confirmedStates = []string{"sale", "done"}

type orderRecord struct {
	ID            int64        `json:"id"`
	Name          erp.Text     `json:"name"`
	Partner       erp.Many2One `json:"partner_id"`
	DateOrder     erp.Date     `json:"date_order"`
	AmountTotal   erp.Amount   `json:"amount_total"`
	InvoiceStatus erp.Text     `json:"invoice_status"`
	User          erp.Many2One `json:"user_id"`
	Team          erp.Many2One `json:"team_id"`
}

type lineRecord struct {
	ID       int64        `json:"id"`
	Order    erp.Many2One `json:"order_id"`
	Product  erp.Many2One `json:"product_id"`
	Quantity erp.Float    `json:"product_uom_qty"`
	Subtotal erp.Amount   `json:"price_subtotal"`
}

type productRecord struct {
	ID          int64           `json:"id"`
	Code        erp.Text        `json:"default_code"`
	Name        erp.Text        `json:"name"`
	Lot         erp.Text        `json:"x_studio_lote"`
	Destination erp.Text        `json:"x_studio_destino"`
	Transport   erp.Text        `json:"x_studio_transporte"`
	Commission  erp.Amount      `json:"x_studio_comision_agencia"`
	Departure   erp.Date        `json:"x_studio_ida_fecha_salida"`
	QuotaType   erp.Text        `json:"x_studio_tipo_de_cupo"`
	Status      erp.OptionalInt `json:"x_studio_estado_viaje"`
	Total       erp.Float       `json:"x_studio_boletos_totales"`
	Reserved    erp.Float       `json:"x_studio_boletos_reservados"`
	Paid        erp.Float       `json:"x_product_count_pagados_stat_inf"`
	Available   erp.Float       `json:"x_studio_boletos_disponibles"`
}

type teamRecord struct {
	ID   int64    `json:"id"`
	Name erp.Text `json:"name"`
}

type repo struct {
	reader erp.Reader
	cfg    *config.DashboardConfigHolder
}

func Provide(reader erp.Reader, cfg *config.DashboardConfigHolder) domain.Repository {
	return &repo{reader: reader, cfg: cfg}
}

func (r *repo) Lines(ctx context.Context, q domain.OrderQuery) ([]domain.Line, error) {
	var orders []orderRecord
	if err := r.reader.SearchRead(ctx, erp.ModelSaleOrder, orderDomain(q), orderFields, &orders, erp.WithOrder("date_order desc")); err != nil {
		return nil, fmt.Errorf("list sale orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	chunk := r.cfg.Get().IDChunkSize
	orderIDs := make([]int64, 0, len(orders))
	byID := make(map[int64]orderRecord, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		byID[o.ID] = o
	}

	lines, err := erp.ReadIn[lineRecord](ctx, r.reader, erp.ModelSaleOrderLine, "order_id", orderIDs, chunk, nil, lineFields)
	if err != nil {
		return nil, fmt.Errorf("list sale order lines: %w", err)
	}

	productIDs := make([]int64, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.Product.ID)
	}
	products, err := erp.ReadIn[productRecord](ctx, r.reader, erp.ModelProduct, "id", erp.UniqueIDs(productIDs), chunk, nil, productFields)
	if err != nil {
		return nil, fmt.Errorf("list sold products: %w", err)
	}
	productsByID := make(map[int64]productRecord, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	out := make([]domain.Line, 0, len(lines))
	for _, l := range lines {
		o, ok := byID[l.Order.ID]
		if !ok {
			continue
		}
		// lines without a product (notes, sections) carry no package
		p, ok := productsByID[l.Product.ID]
		if !ok {
			continue
		}
		qty := float64(l.Quantity)
		out = append(out, domain.Line{
			OrderID:        o.ID,
			Order:          o.Name.String(),
			Customer:       o.Partner.Name,
			Date:           o.DateOrder.Time,
			InvoiceStatus:  o.InvoiceStatus.String(),
			OrderTotal:     o.AmountTotal.Decimal,
			Salesperson:    o.User.Name,
			TeamID:         o.Team.ID,
			Team:           o.Team.Name,
			ProductID:      p.ID,
			ProductCode:    p.Code.String(),
			ProductName:    p.Name.String(),
			Lot:            p.Lot.String(),
			Destination:    p.Destination.String(),
			Transport:      p.Transport.String(),
			Departure:      p.Departure.Time,
			QuotaType:      p.QuotaType.String(),
			StatusCode:     p.Status.Ptr(),
			StatusRaw:      p.Status.Raw,
			TotalSeats:     float64(p.Total),
			ReservedSeats:  float64(p.Reserved),
			PaidSeats:      float64(p.Paid),
			AvailableSeats: float64(p.Available),
			Passengers:     qty,
			Subtotal:       l.Subtotal.Decimal,
			UnitCommission: p.Commission.Decimal,
			Commission:     p.Commission.Decimal.Mul(decimal.NewFromFloat(qty)),
		})
	}
	return out, nil
}

func (r *repo) Teams(ctx context.Context) ([]domain.Team, error) {
	var records []teamRecord
	if err := r.reader.SearchRead(ctx, erp.ModelTeam, erp.Where(), []string{"id", "name"}, &records, erp.WithOrder("name")); err != nil {
		return nil, fmt.Errorf("list sales teams: %w", err)
	}
	out := make([]domain.Team, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Team{ID: rec.ID, Name: rec.Name.String()})
	}
	return out, nil
}

func orderDomain(q domain.OrderQuery) erp.Domain {
	d := erp.Where(
		erp.In("state", confirmedStates),
		erp.Gte("date_order", q.From.Format(domain.DateLayout)+" 00:00:00"),
		erp.Lte("date_order", q.To.Format(domain.DateLayout)+" 23:59:59"),
	)
	if len(q.InvoiceStatuses) > 0 {
		d = d.And(erp.In("invoice_status", q.InvoiceStatuses))
	}
	if q.TeamID > 0 {
		d = d.And(erp.Eq("team_id", q.TeamID))
	}
	return d
}
