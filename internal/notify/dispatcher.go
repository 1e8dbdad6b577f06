package notify

import (
	"context"
	"log/slog"

	"github.com/votewatch/election-alerts/internal/directory"
	"github.com/votewatch/election-alerts/internal/metrics"
	"github.com/votewatch/election-alerts/internal/models"
	"github.com/votewatch/election-alerts/internal/worker"
)

// dispatchRoles are the roles targeted when an alert carries no explicit
// recipient list.
var dispatchRoles = []models.Role{models.RoleAdmin, models.RoleCoordinator, models.RoleSupervisor}

type delivery struct {
	channel   models.Channel
	recipient models.Recipient
	alert     *models.Alert
}

// Dispatcher fans an alert out across its channels and recipients over a
// bounded worker pool. Fan-out is best effort: a failed delivery is logged
// and counted, never propagated to the state transition that triggered it.
type Dispatcher struct {
	notifier           Notifier
	directory          directory.UserDirectory
	escalationContacts []models.Recipient
	pool               *worker.Pool
}

func NewDispatcher(notifier Notifier, dir directory.UserDirectory, escalationContacts []models.Recipient, workers, bufferSize int) *Dispatcher {
	d := &Dispatcher{
		notifier:           notifier,
		directory:          dir,
		escalationContacts: escalationContacts,
	}
	d.pool = worker.NewPool(workers, bufferSize, d.process)
	return d
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

// Stop drains queued deliveries and waits for in-flight ones.
func (d *Dispatcher) Stop() {
	d.pool.Stop()
}

func (d *Dispatcher) process(ctx context.Context, job worker.Job) error {
	del := job.(delivery)

	res := d.notifier.SendChannel(ctx, del.channel, del.recipient, del.alert)
	if res.Err != nil || !res.Delivered {
		metrics.Deliveries.WithLabelValues(string(del.channel), "failed").Inc()
		slog.Error("delivery failed",
			"alert", del.alert.ID,
			"channel", del.channel,
			"recipient", del.recipient.ID,
			"error", res.Err,
		)
		return res.Err
	}

	metrics.Deliveries.WithLabelValues(string(del.channel), "delivered").Inc()
	return nil
}

// Dispatch sends the alert to its recipients on every configured channel.
// Recipients missing the identifier for a channel are skipped for that
// channel only.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) {
	recipients := alert.Recipients
	if len(recipients) == 0 {
		recipients = d.resolveRecipients(ctx, alert)
	}
	d.fanOut(alert, alert.Channels, recipients)
}

// DispatchEscalation notifies the fixed escalation contact set, not the
// original recipients.
func (d *Dispatcher) DispatchEscalation(ctx context.Context, alert *models.Alert) {
	if len(d.escalationContacts) == 0 {
		slog.Warn("no escalation contacts configured", "alert", alert.ID)
		return
	}
	d.fanOut(alert, alert.Channels, d.escalationContacts)
}

func (d *Dispatcher) fanOut(alert *models.Alert, channels []models.Channel, recipients []models.Recipient) {
	for _, ch := range channels {
		if !ch.Valid() {
			slog.Warn("skipping unknown channel", "alert", alert.ID, "channel", ch)
			continue
		}
		for _, r := range recipients {
			if r.Address(ch) == "" {
				slog.Debug("recipient has no address for channel",
					"alert", alert.ID, "channel", ch, "recipient", r.ID)
				continue
			}
			d.pool.Submit(delivery{channel: ch, recipient: r, alert: alert})
		}
	}
}

// resolveRecipients targets admins, coordinators and supervisors. When the
// alert names a parish, users assigned to another parish are dropped; users
// with no parish assignment are treated as national staff and kept.
func (d *Dispatcher) resolveRecipients(ctx context.Context, alert *models.Alert) []models.Recipient {
	seen := make(map[string]bool)
	var recipients []models.Recipient

	for _, role := range dispatchRoles {
		users, err := d.directory.UsersByRole(ctx, role)
		if err != nil {
			slog.Error("error resolving recipients by role", "role", role, "error", err)
			continue
		}
		for _, u := range users {
			if seen[u.ID] {
				continue
			}
			if alert.Location.Parish != "" && u.Parish != "" && u.Parish != alert.Location.Parish {
				continue
			}
			seen[u.ID] = true
			recipients = append(recipients, u)
		}
	}

	return recipients
}
