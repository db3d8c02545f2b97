package repository

import (
	"context"
	"fmt"

	"github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
)

var templateFields = []string{
	"id", "name", "default_code", "x_studio_lote", "x_studio_destino",
	"x_studio_transporte", "x_studio_ida_fecha_salida", "x_studio_tipo_de_cupo",
	"x_studio_estado_viaje", "x_studio_boletos_totales", "x_studio_boletos_reservados",
	"x_product_count_pagados_stat_inf", "x_studio_boletos_disponibles",
	"list_price", "x_studio_comision_agencia",
}

var productFields = []string{
	"id", "default_code", "name", "product_tmpl_id", "list_price",
	"x_studio_lote", "x_studio_destino", "x_studio_transporte", "x_studio_estado_viaje",
	"x_studio_tipo_de_cupo", "x_studio_ida_fecha_salida", "x_studio_boletos_totales",
	"x_studio_boletos_reservados", "x_product_count_pagados_stat_inf",
	"x_studio_boletos_disponibles", "x_studio_comision_agencia",
}

type seatCounts struct {
	Total     erp.Float `json:"x_studio_boletos_totales"`
	Reserved  erp.Float `json:"x_studio_boletos_reservados"`
	Paid      erp.Float `json:"x_product_count_pagados_stat_inf"`
	Available erp.Float `json:"x_studio_boletos_disponibles"`
}

type templateRecord struct {
	ID          int64           `json:"id"`
	Name        erp.Text        `json:"name"`
	Code        erp.Text        `json:"default_code"`
	Lot         erp.Text        `json:"x_studio_lote"`
	Destination erp.Text        `json:"x_studio_destino"`
	Transport   erp.Text        `json:"x_studio_transporte"`
	Departure   erp.Date        `json:"x_studio_ida_fecha_salida"`
	QuotaType   erp.Text        `json:"x_studio_tipo_de_cupo"`
	Status      erp.OptionalInt `json:"x_studio_estado_viaje"`
	ListPrice   erp.Amount      `json:"list_price"`
	Commission  erp.Amount      `json:"x_studio_comision_agencia"`
	seatCounts
}

type productRecord struct {
	ID          int64           `json:"id"`
	Template    erp.Many2One    `json:"product_tmpl_id"`
	Code        erp.Text        `json:"default_code"`
	Name        erp.Text        `json:"name"`
	Lot         erp.Text        `json:"x_studio_lote"`
	Destination erp.Text        `json:"x_studio_destino"`
	Transport   erp.Text        `json:"x_studio_transporte"`
	Departure   erp.Date        `json:"x_studio_ida_fecha_salida"`
	Status      erp.OptionalInt `json:"x_studio_estado_viaje"`
	QuotaType   erp.Text        `json:"x_studio_tipo_de_cupo"`
	ListPrice   erp.Amount      `json:"list_price"`
	Commission  erp.Amount      `json:"x_studio_comision_agencia"`
	seatCounts
}

type repo struct {
	reader erp.Reader
	cfg    *config.DashboardConfigHolder
}

func Provide(reader erp.Reader, cfg *config.DashboardConfigHolder) domain.Repository {
	return &repo{reader: reader, cfg: cfg}
}

func (r *repo) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	var records []templateRecord
	if err := r.reader.SearchRead(ctx, erp.ModelProductTemplate, erp.Where(), templateFields, &records); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]domain.Template, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Template{
			ID:               rec.ID,
			Name:             rec.Name.String(),
			Code:             rec.Code.String(),
			Lot:              rec.Lot.String(),
			Destination:      rec.Destination.String(),
			Transport:        rec.Transport.String(),
			Departure:        rec.Departure.Time,
			DepartureRaw:     rec.Departure.Invalid,
			QuotaType:        rec.QuotaType.String(),
			StatusCode:       rec.Status.Ptr(),
			StatusRaw:        rec.Status.Raw,
			TotalSeats:       float64(rec.Total),
			ReservedSeats:    float64(rec.Reserved),
			PaidSeats:        float64(rec.Paid),
			AvailableSeats:   float64(rec.Available),
			ListPrice:        rec.ListPrice.Decimal,
			AgencyCommission: rec.Commission.Decimal,
		})
	}
	return out, nil
}

func (r *repo) ListProducts(ctx context.Context, templateIDs []int64) ([]domain.Product, error) {
	records, err := erp.ReadIn[productRecord](ctx, r.reader, erp.ModelProduct, "product_tmpl_id",
		templateIDs, r.cfg.Get().IDChunkSize, nil, productFields)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Product{
			ID:               rec.ID,
			TemplateID:       rec.Template.ID,
			Code:             rec.Code.String(),
			Name:             rec.Name.String(),
			Lot:              rec.Lot.String(),
			Destination:      rec.Destination.String(),
			Transport:        rec.Transport.String(),
			Departure:        rec.Departure.Time,
			DepartureRaw:     rec.Departure.Invalid,
			StatusCode:       rec.Status.Ptr(),
			StatusRaw:        rec.Status.Raw,
			QuotaType:        rec.QuotaType.String(),
			TotalSeats:       float64(rec.Total),
			ReservedSeats:    float64(rec.Reserved),
			PaidSeats:        float64(rec.Paid),
			AvailableSeats:   float64(rec.Available),
			ListPrice:        rec.ListPrice.Decimal,
			AgencyCommission: rec.Commission.Decimal,
		})
	}
	return out, nil
}
