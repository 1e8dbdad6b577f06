package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/votewatch/election-alerts/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sentDelivery struct {
	channel   models.Channel
	recipient string
}

// mockNotifier records deliveries and fails the channels listed in failOn.
type mockNotifier struct {
	mu     sync.Mutex
	sent   []sentDelivery
	failOn map[models.Channel]bool
}

func (m *mockNotifier) SendChannel(ctx context.Context, channel models.Channel, recipient models.Recipient, alert *models.Alert) DeliveryResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[channel] {
		return DeliveryResult{Err: errors.New("gateway unavailable")}
	}
	m.sent = append(m.sent, sentDelivery{channel: channel, recipient: recipient.ID})
	return DeliveryResult{Delivered: true}
}

func (m *mockNotifier) deliveries() []sentDelivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentDelivery(nil), m.sent...)
}

type mockDirectory struct {
	users []models.Recipient
}

func (m *mockDirectory) UsersByRole(ctx context.Context, role models.Role) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockDirectory) UsersByParish(ctx context.Context, parish string) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, u := range m.users {
		if u.Parish == parish {
			out = append(out, u)
		}
	}
	return out, nil
}

func runDispatch(t *testing.T, d *Dispatcher, fn func(ctx context.Context)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	fn(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	d.Stop()
}

func TestDispatcher_FanOutAllChannels(t *testing.T) {
	n := &mockNotifier{}
	d := NewDispatcher(n, &mockDirectory{}, nil, 2, 16)

	alert := &models.Alert{
		ID:       "alert_1",
		Channels: []models.Channel{models.ChannelSMS, models.ChannelEmail},
		Recipients: []models.Recipient{
			{ID: "u1", Phone: "+18765550001", Email: "u1@example.org"},
			{ID: "u2", Phone: "+18765550002", Email: "u2@example.org"},
		},
	}

	runDispatch(t, d, func(ctx context.Context) {
		d.Dispatch(ctx, alert)
	})

	if got := len(n.deliveries()); got != 4 {
		t.Errorf("expected 4 deliveries (2 channels x 2 recipients), got %d", got)
	}
}

func TestDispatcher_SkipsRecipientWithoutAddress(t *testing.T) {
	n := &mockNotifier{}
	d := NewDispatcher(n, &mockDirectory{}, nil, 2, 16)

	alert := &models.Alert{
		ID:       "alert_1",
		Channels: []models.Channel{models.ChannelSMS, models.ChannelEmail},
		Recipients: []models.Recipient{
			{ID: "u1", Phone: "+18765550001"}, // no email address
		},
	}

	runDispatch(t, d, func(ctx context.Context) {
		d.Dispatch(ctx, alert)
	})

	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	if sent[0].channel != models.ChannelSMS {
		t.Errorf("expected sms delivery, got %s", sent[0].channel)
	}
}

func TestDispatcher_ChannelFailureDoesNotBlockOthers(t *testing.T) {
	n := &mockNotifier{failOn: map[models.Channel]bool{models.ChannelSMS: true}}
	d := NewDispatcher(n, &mockDirectory{}, nil, 2, 16)

	alert := &models.Alert{
		ID:       "alert_1",
		Channels: []models.Channel{models.ChannelSMS, models.ChannelEmail},
		Recipients: []models.Recipient{
			{ID: "u1", Phone: "+18765550001", Email: "u1@example.org"},
		},
	}

	runDispatch(t, d, func(ctx context.Context) {
		d.Dispatch(ctx, alert)
	})

	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected 1 successful delivery, got %d", len(sent))
	}
	if sent[0].channel != models.ChannelEmail {
		t.Errorf("expected email to succeed despite sms failure, got %s", sent[0].channel)
	}
}

func TestDispatcher_DynamicRecipientsByRoleAndParish(t *testing.T) {
	dir := &mockDirectory{users: []models.Recipient{
		{ID: "admin1", Role: models.RoleAdmin, Phone: "+18765550001"},                                 // national, kept
		{ID: "coord1", Role: models.RoleCoordinator, Parish: "St. Andrew", Phone: "+18765550002"},     // matching parish
		{ID: "coord2", Role: models.RoleCoordinator, Parish: "Portland", Phone: "+18765550003"},       // other parish, dropped
		{ID: "obs1", Role: models.RoleObserver, Parish: "St. Andrew", Phone: "+18765550004"},          // wrong role
		{ID: "super1", Role: models.RoleSupervisor, Parish: "St. Andrew", Phone: "+18765550005"},      // matching parish
	}}

	n := &mockNotifier{}
	d := NewDispatcher(n, dir, nil, 2, 16)

	alert := &models.Alert{
		ID:       "alert_1",
		Channels: []models.Channel{models.ChannelSMS},
		Location: models.Location{Parish: "St. Andrew"},
	}

	runDispatch(t, d, func(ctx context.Context) {
		d.Dispatch(ctx, alert)
	})

	sent := n.deliveries()
	got := make(map[string]bool)
	for _, s := range sent {
		got[s.recipient] = true
	}

	want := []string{"admin1", "coord1", "super1"}
	if len(sent) != len(want) {
		t.Fatalf("expected %d deliveries, got %d (%v)", len(want), len(sent), got)
	}
	for _, id := range want {
		if !got[id] {
			t.Errorf("expected delivery to %s", id)
		}
	}
}

func TestDispatcher_EscalationUsesFixedContacts(t *testing.T) {
	contacts := []models.Recipient{
		{ID: "eoc1", Role: models.RoleAdmin, Phone: "+18765550100"},
	}

	n := &mockNotifier{}
	d := NewDispatcher(n, &mockDirectory{}, contacts, 2, 16)

	alert := &models.Alert{
		ID:       "alert_1",
		Channels: []models.Channel{models.ChannelSMS},
		Recipients: []models.Recipient{
			{ID: "u1", Phone: "+18765550001"},
		},
	}

	runDispatch(t, d, func(ctx context.Context) {
		d.DispatchEscalation(ctx, alert)
	})

	sent := n.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	if sent[0].recipient != "eoc1" {
		t.Errorf("expected escalation contact eoc1, got %s", sent[0].recipient)
	}
}
