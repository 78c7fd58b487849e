package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/user"
	"loanflow-backend/internal/testutil/usermock"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

type sentMessage struct {
	channel   notification.Channel
	recipient string
	kind      notification.Kind
}

// fakeSender records every call and answers with Outcome.
type fakeSender struct {
	mu      sync.Mutex
	Outcome notification.Outcome
	sent    []sentMessage
}

func (f *fakeSender) Send(_ context.Context, ch notification.Channel, recipient string, kind notification.Kind, _ map[string]any) notification.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channel: ch, recipient: recipient, kind: kind})
	if recipient == "" {
		return notification.PermanentFailure
	}
	return f.Outcome
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func event(userID string, ch notification.Channel) notification.Event {
	return notification.Event{
		Key:    notification.Key{SubjectID: "L1", Kind: notification.KindPaymentFailed, Channel: ch, Version: 3},
		UserID: userID,
	}
}

func TestDeliverer_ResolvesRecipientPerChannel(t *testing.T) {
	users := usermock.Static(user.User{UserID: "U1", Email: "u1@example.com", Phone: "+6281234567890"})
	sender := &fakeSender{}
	log, _ := logtest.NewNullLogger()
	d := NewDeliverer(users, sender, log)
	tr, _ := newTracker(NewMemoryStore())

	for _, ch := range []notification.Channel{notification.ChannelEmail, notification.ChannelWhatsApp} {
		res, err := d.Deliver(context.Background(), tr, event("U1", ch))
		if err != nil || res.Status != Sent {
			t.Fatalf("%s: res=%+v err=%v", ch, res, err)
		}
	}
	sent := sender.Sent()
	if len(sent) != 2 || sent[0].recipient != "u1@example.com" || sent[1].recipient != "+6281234567890" {
		t.Fatalf("unexpected sends: %+v", sent)
	}
}

func TestDeliverer_UnknownUserIsPermanent(t *testing.T) {
	sender := &fakeSender{}
	log, _ := logtest.NewNullLogger()
	d := NewDeliverer(usermock.Static(), sender, log)
	tr, _ := newTracker(NewMemoryStore())

	res, err := d.Deliver(context.Background(), tr, event("ghost", notification.ChannelEmail))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Skipped || res.Outcome != notification.PermanentFailure {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDeliverer_LookupErrorIsTransient(t *testing.T) {
	users := &usermock.Repo{GetByUserIDFn: func(context.Context, string) (*user.User, error) {
		return nil, errors.New("db down")
	}}
	sender := &fakeSender{}
	log, hook := logtest.NewNullLogger()
	d := NewDeliverer(users, sender, log)
	tr, _ := newTracker(NewMemoryStore())

	res, err := d.Deliver(context.Background(), tr, event("U1", notification.ChannelEmail))
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != notification.TransientFailure || len(sender.Sent()) != 0 {
		t.Fatalf("res=%+v sent=%v", res, sender.Sent())
	}
	if hook.LastEntry() == nil {
		t.Fatal("expected a warning to be logged")
	}
}

func TestDeliverer_ResolvesRecipientOnceAcrossRetries(t *testing.T) {
	lookups := 0
	users := &usermock.Repo{GetByUserIDFn: func(context.Context, string) (*user.User, error) {
		lookups++
		return &user.User{UserID: "U1", Email: "u1@example.com"}, nil
	}}
	s := &scripted{outcomes: []notification.Outcome{notification.RateLimited, notification.Delivered}}
	sender := senderFunc(func(context.Context, notification.Channel, string, notification.Kind, map[string]any) notification.Outcome {
		return s.send(context.Background())
	})
	log, _ := logtest.NewNullLogger()
	tr, _ := newTracker(NewMemoryStore())

	res, err := NewDeliverer(users, sender, log).Deliver(context.Background(), tr, event("U1", notification.ChannelEmail))
	if err != nil || res.Calls != 2 {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if lookups != 1 {
		t.Fatalf("lookups = %d, want 1", lookups)
	}
}

type senderFunc func(ctx context.Context, ch notification.Channel, recipient string, kind notification.Kind, data map[string]any) notification.Outcome

func (f senderFunc) Send(ctx context.Context, ch notification.Channel, recipient string, kind notification.Kind, data map[string]any) notification.Outcome {
	return f(ctx, ch, recipient, kind, data)
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	users := usermock.Static(user.User{UserID: "U1", Email: "u1@example.com"})
	sender := &fakeSender{}
	log, hook := logtest.NewNullLogger()
	tr, _ := newTracker(NewMemoryStore())
	d := NewDispatcher(tr, NewDeliverer(users, sender, log), log)

	d.Dispatch(event("U1", notification.ChannelEmail))
	d.Dispatch(event("U1", notification.ChannelEmail))
	d.Wait()

	// the second dispatch may race the first; dedup allows at most one more send
	if n := len(sender.Sent()); n < 1 || n > 2 {
		t.Fatalf("sends = %d", n)
	}
	if len(hook.AllEntries()) != 2 {
		t.Fatalf("log entries = %d, want 2", len(hook.AllEntries()))
	}
	d.Stop()
}

func TestDispatcher_SequentialDispatchDedups(t *testing.T) {
	users := usermock.Static(user.User{UserID: "U1", Email: "u1@example.com"})
	sender := &fakeSender{}
	log, _ := logtest.NewNullLogger()
	tr, _ := newTracker(NewMemoryStore())
	d := NewDispatcher(tr, NewDeliverer(users, sender, log), log)
	defer d.Stop()

	d.Dispatch(event("U1", notification.ChannelEmail))
	d.Wait()
	d.Dispatch(event("U1", notification.ChannelEmail))
	d.Wait()

	if n := len(sender.Sent()); n != 1 {
		t.Fatalf("sends = %d, want 1", n)
	}
}
