package scheduling

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/notification"
)

// TemplateNotifier delivers booking events through the notification manager
// using its built-in templates. Delivery failures are logged and never
// propagate to the booking path.
type TemplateNotifier struct {
	manager *notification.Manager
	logger  zerolog.Logger
}

func NewTemplateNotifier(manager *notification.Manager, logger zerolog.Logger) *TemplateNotifier {
	return &TemplateNotifier{manager: manager, logger: logger}
}

func formatCents(c int64) string {
	return fmt.Sprintf("$%d.%02d", c/100, c%100)
}

func (n *TemplateNotifier) send(ctx context.Context, templateID string, to Contact, data map[string]string) {
	if to.Email == "" {
		return
	}
	data["patient_name"] = to.Name
	if _, err := n.manager.SendFromTemplate(ctx, templateID, data, to.Email); err != nil {
		n.logger.Warn().Err(err).Str("template", templateID).Msg("notification delivery failed")
	}
}

func (n *TemplateNotifier) AppointmentBooked(ctx context.Context, a *Appointment, to Contact) {
	n.send(ctx, "appointment-booked", to, map[string]string{
		"provider":     a.ProviderID.String(),
		"date":         a.Start.Format("2006-01-02"),
		"time":         a.Start.Format("15:04"),
		"patient_cost": formatCents(a.PatientCostCents),
	})
}

func (n *TemplateNotifier) AppointmentCancelled(ctx context.Context, a *Appointment, to Contact) {
	n.send(ctx, "appointment-cancelled", to, map[string]string{
		"provider": a.ProviderID.String(),
		"date":     a.Start.Format("2006-01-02"),
		"time":     a.Start.Format("15:04"),
	})
}

func (n *TemplateNotifier) AppointmentRescheduled(ctx context.Context, a *Appointment, to Contact) {
	n.send(ctx, "appointment-rescheduled", to, map[string]string{
		"provider": a.ProviderID.String(),
		"date":     a.Start.Format("2006-01-02"),
		"time":     a.Start.Format("15:04"),
	})
}

func (n *TemplateNotifier) SeriesCreated(ctx context.Context, to Contact, pattern Pattern, booked, skipped int) {
	n.send(ctx, "recurring-series-created", to, map[string]string{
		"pattern": string(pattern),
		"count":   fmt.Sprintf("%d", booked),
		"skipped": fmt.Sprintf("%d", skipped),
	})
}
