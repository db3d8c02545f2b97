package domain

import "context"

type Service interface {
	Lines(ctx context.Context, filter Filter) ([]Line, error)
	ByDestination(ctx context.Context, filter Filter) (DestinationReport, error)
	ByAgency(ctx context.Context, filter Filter) (AgencyReport, error)
	Teams(ctx context.Context) ([]Team, error)
}
