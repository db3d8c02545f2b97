package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// MaxReconcileBatchSize is the largest id group sent in one reconciliation query.
const MaxReconcileBatchSize = 50

// PackageStatus maps a trip-status code to its display label.
type PackageStatus struct {
	Code  int    `mapstructure:"code" json:"code"`
	Label string `mapstructure:"label" json:"label"`
}

type OccupancyBands struct {
	LowBelow  float64 `mapstructure:"lowBelow" json:"low_below"`
	HighAbove float64 `mapstructure:"highAbove" json:"high_above"`
}

type DepartureBands struct {
	UrgentDays int `mapstructure:"urgentDays" json:"urgent_days"`
	SoonDays   int `mapstructure:"soonDays" json:"soon_days"`
}

// DashboardConfig holds reporting tunables that may change without a restart.
type DashboardConfig struct {
	PackageStatuses      []PackageStatus   `mapstructure:"packageStatuses" json:"package_statuses"`
	DefaultStatuses      []string          `mapstructure:"defaultStatuses" json:"default_statuses"`
	InvoiceStatuses      map[string]string `mapstructure:"invoiceStatuses" json:"invoice_statuses"`
	ReconcileBatchSize   int               `mapstructure:"reconcileBatchSize" json:"reconcile_batch_size"`
	IDChunkSize          int               `mapstructure:"idChunkSize" json:"id_chunk_size"`
	DiscrepancyTolerance float64           `mapstructure:"discrepancyTolerance" json:"discrepancy_tolerance"`
	Occupancy            OccupancyBands    `mapstructure:"occupancy" json:"occupancy"`
	Departure            DepartureBands    `mapstructure:"departure" json:"departure"`
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		PackageStatuses: []PackageStatus{
			{Code: 0, Label: "Bloqueado"},
			{Code: 1, Label: "Inactivo"},
			{Code: 2, Label: "Pendiente"},
			{Code: 3, Label: "Activo"},
			{Code: 4, Label: "Validación"},
			{Code: 5, Label: "Cerrado"},
			{Code: 6, Label: "Rendido"},
			{Code: 7, Label: "Liquidado"},
			{Code: 8, Label: "Pre-confirmado"},
			{Code: 9, Label: "Anulado"},
			{Code: 10, Label: "Social"},
		},
		DefaultStatuses: []string{"Activo", "Validación"},
		InvoiceStatuses: map[string]string{
			"upselling":  "Oportunidad de venta adicional",
			"invoiced":   "Totalmente facturado",
			"to invoice": "A facturar",
			"no":         "Nada que facturar",
		},
		ReconcileBatchSize:   MaxReconcileBatchSize,
		IDChunkSize:          500,
		DiscrepancyTolerance: 0.0001,
		Occupancy:            OccupancyBands{LowBelow: 50, HighAbove: 80},
		Departure:            DepartureBands{UrgentDays: 7, SoonDays: 30},
	}
}

// StatusLabel resolves a trip-status code. Unknown codes render as "Estado N".
func (c DashboardConfig) StatusLabel(code *int) string {
	if code == nil {
		return "No definido"
	}
	for _, s := range c.PackageStatuses {
		if s.Code == *code {
			return s.Label
		}
	}
	return fmt.Sprintf("Estado %d", *code)
}

// StatusCodes returns the codes whose label is in labels.
func (c DashboardConfig) StatusCodes(labels []string) []int {
	wanted := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		wanted[strings.TrimSpace(l)] = struct{}{}
	}
	var codes []int
	for _, s := range c.PackageStatuses {
		if _, ok := wanted[s.Label]; ok {
			codes = append(codes, s.Code)
		}
	}
	return codes
}

// InvoiceStatusLabel falls back to the raw value when no label is configured.
func (c DashboardConfig) InvoiceStatusLabel(status string) string {
	if label, ok := c.InvoiceStatuses[status]; ok {
		return label
	}
	return status
}

type DashboardConfigHolder struct {
	current atomic.Value // holds DashboardConfig
}

// NewStaticDashboardConfigHolder wraps a fixed configuration without file watching.
func NewStaticDashboardConfigHolder(cfg DashboardConfig) *DashboardConfigHolder {
	holder := &DashboardConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDashboardConfigHolder(log *zap.Logger) (*DashboardConfigHolder, error) {
	log = log.Named("config.dashboard")
	v := viper.New()

	v.SetConfigName("dashboard")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/cuadra")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CUADRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeDashboardConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticDashboardConfigHolder(cfg)
	if !fileFound {
		log.Info("dashboard config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeDashboardConfig(v)
		if err != nil {
			log.Warn("invalid dashboard config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("dashboard config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *DashboardConfigHolder) Get() DashboardConfig {
	if h == nil {
		return DefaultDashboardConfig()
	}
	cfg, ok := h.current.Load().(DashboardConfig)
	if !ok {
		return DefaultDashboardConfig()
	}
	return cfg
}

func decodeDashboardConfig(v *viper.Viper) (DashboardConfig, error) {
	cfg := DefaultDashboardConfig()
	if v.IsSet("dashboard") {
		if err := v.UnmarshalKey("dashboard", &cfg); err != nil {
			return DashboardConfig{}, err
		}
	}
	if err := ValidateDashboardConfig(cfg); err != nil {
		return DashboardConfig{}, err
	}
	return cfg, nil
}

func ValidateDashboardConfig(cfg DashboardConfig) error {
	if len(cfg.PackageStatuses) == 0 {
		return errors.New("dashboard.packageStatuses cannot be empty")
	}
	if cfg.ReconcileBatchSize <= 0 || cfg.ReconcileBatchSize > MaxReconcileBatchSize {
		return fmt.Errorf("dashboard.reconcileBatchSize must be between 1 and %d", MaxReconcileBatchSize)
	}
	if cfg.IDChunkSize <= 0 {
		return errors.New("dashboard.idChunkSize must be positive")
	}
	if cfg.DiscrepancyTolerance < 0 {
		return errors.New("dashboard.discrepancyTolerance cannot be negative")
	}
	if cfg.Occupancy.LowBelow > cfg.Occupancy.HighAbove {
		return errors.New("dashboard.occupancy.lowBelow must not exceed highAbove")
	}
	if cfg.Departure.UrgentDays > cfg.Departure.SoonDays {
		return errors.New("dashboard.departure.urgentDays must not exceed soonDays")
	}
	return nil
}
