package format

import (
	"strings"

	"github.com/smallbiznis/cuadra/internal/allocation"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
)

// Style is the highlight class of a table row or cell.
type Style string

const (
	StyleNone    Style = ""
	StyleInfo    Style = "info"
	StyleWarning Style = "warning"
	StyleDanger  Style = "danger"
	StyleSuccess Style = "success"
	StyleMuted   Style = "muted"
)

// OrderStyle flags outstanding debt first, then the invoicing state.
func OrderStyle(o reconciledomain.OrderRow) Style {
	switch {
	case o.Owed.IsPositive():
		return StyleWarning
	case o.InvoiceStatusCode == "no":
		return StyleDanger
	case o.InvoiceStatusCode == "to invoice":
		return StyleInfo
	}
	return StyleNone
}

func ProductStyle(p allocation.ProductRow) Style {
	if p.OutOfBalance {
		return StyleDanger
	}
	return StyleNone
}

func PaymentStyle(p reconciledomain.PaymentRow) Style {
	if strings.Contains(strings.ToLower(p.InvoicePaymentState), reconciledomain.PaymentStatePartial) {
		return StyleWarning
	}
	return StyleNone
}

func BandStyle(b occupancydomain.Band) Style {
	switch b {
	case occupancydomain.BandHigh:
		return StyleSuccess
	case occupancydomain.BandMedium:
		return StyleWarning
	case occupancydomain.BandLow:
		return StyleDanger
	}
	return StyleNone
}

func UrgencyStyle(u occupancydomain.Urgency) Style {
	switch u {
	case occupancydomain.UrgencyDeparted:
		return StyleMuted
	case occupancydomain.UrgencyToday, occupancydomain.UrgencyUrgent:
		return StyleDanger
	case occupancydomain.UrgencySoon:
		return StyleWarning
	case occupancydomain.UrgencyLater:
		return StyleSuccess
	}
	return StyleNone
}
