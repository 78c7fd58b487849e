package redis

import (
	"context"
	"testing"
	"time"

	"loanflow-backend/internal/domain/notification"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *SendRecordStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewSendRecordStore(rdb)
}

func TestSendRecordStore_PutGet(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "L1:payment_failed:email"); err != nil || ok {
		t.Fatalf("missing record: ok=%v err=%v", ok, err)
	}

	at := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	if err := s.Put(ctx, "L1:payment_failed:email", notification.Record{Version: 3, LastAttemptAt: at}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rec, ok, err := s.Get(ctx, "L1:payment_failed:email")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if rec.Version != 3 || !rec.LastAttemptAt.Equal(at) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSendRecordStore_ExpiresAfterIdleTTL(t *testing.T) {
	mr, s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "U1:profile_incomplete:whatsapp", notification.Record{Version: 1, LastAttemptAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mr.TTL(keyPrefix + "U1:profile_incomplete:whatsapp"); ttl != RecordTTL {
		t.Fatalf("ttl = %v, want %v", ttl, RecordTTL)
	}

	mr.FastForward(RecordTTL + time.Second)
	if _, ok, err := s.Get(ctx, "U1:profile_incomplete:whatsapp"); err != nil || ok {
		t.Fatalf("record should have expired: ok=%v err=%v", ok, err)
	}
}

func TestSendRecordStore_CorruptValue(t *testing.T) {
	mr, s := newStore(t)
	if err := mr.Set(keyPrefix+"bad", "not-json"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(context.Background(), "bad"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSendRecordStore_ClaimIsExclusive(t *testing.T) {
	mr, s := newStore(t)
	ctx := context.Background()
	now := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	const id = "L1:payment_failed:email"
	claim := notification.Record{Version: 7, LastAttemptAt: now, Pending: true}

	if ok, err := s.Claim(ctx, id, claim, 24*time.Hour, 15*time.Minute); err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Claim(ctx, id, claim, 24*time.Hour, 15*time.Minute); err != nil || ok {
		t.Fatalf("second claim must lose: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(keyPrefix + id); ttl != RecordTTL {
		t.Fatalf("claim ttl = %v, want %v", ttl, RecordTTL)
	}

	// delivered record of the same version blocks until the window passes
	if err := s.Put(ctx, id, notification.Record{Version: 7, LastAttemptAt: now}); err != nil {
		t.Fatal(err)
	}
	later := notification.Record{Version: 7, LastAttemptAt: now.Add(time.Hour), Pending: true}
	if ok, _ := s.Claim(ctx, id, later, 24*time.Hour, 15*time.Minute); ok {
		t.Fatal("claim inside the window must lose")
	}
	bumped := notification.Record{Version: 8, LastAttemptAt: now.Add(time.Hour), Pending: true}
	if ok, _ := s.Claim(ctx, id, bumped, 24*time.Hour, 15*time.Minute); !ok {
		t.Fatal("new version should win the claim")
	}
}

func TestSendRecordStore_ReleaseOnlyOwnClaim(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()
	now := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	const id = "U1:profile_incomplete:whatsapp"
	claim := notification.Record{Version: 1, LastAttemptAt: now, Pending: true}

	if ok, _ := s.Claim(ctx, id, claim, 24*time.Hour, 15*time.Minute); !ok {
		t.Fatal("claim should win")
	}
	if err := s.Put(ctx, id, notification.Record{Version: 1, LastAttemptAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.Release(ctx, id, claim); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok, _ := s.Get(ctx, id); !ok {
		t.Fatal("release must not drop a delivered record")
	}

	other := "U2:profile_incomplete:whatsapp"
	if ok, _ := s.Claim(ctx, other, claim, 24*time.Hour, 15*time.Minute); !ok {
		t.Fatal("claim should win")
	}
	if err := s.Release(ctx, other, claim); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok, _ := s.Get(ctx, other); ok {
		t.Fatal("held claim should be released")
	}
}
