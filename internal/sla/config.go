package sla

import (
	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// PolicyFromConfig builds the deadline table from env configuration.
func PolicyFromConfig(cfg config.SLAConfig) Policy {
	return Policy{
		domain.TicketPriorityEmergency: {Response: cfg.Emergency.Response, Resolution: cfg.Emergency.Resolution},
		domain.TicketPriorityCritical:  {Response: cfg.Critical.Response, Resolution: cfg.Critical.Resolution},
		domain.TicketPriorityHigh:      {Response: cfg.High.Response, Resolution: cfg.High.Resolution},
		domain.TicketPriorityMedium:    {Response: cfg.Medium.Response, Resolution: cfg.Medium.Resolution},
		domain.TicketPriorityLow:       {Response: cfg.Low.Response, Resolution: cfg.Low.Resolution},
	}
}
