package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis answers the commands the limiter sends from memory. It is
// installed as a hook so the client never dials.
type fakeRedis struct {
	mu       sync.Mutex
	counters map[string]int64
	ttls     map[string]time.Duration
	failWith error
}

func newFakeClient(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	f := &fakeRedis{counters: map[string]int64{}, ttls: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(f)
	t.Cleanup(func() { _ = client.Close() })
	return client, f
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("fake redis does not dial")
	}
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.apply(cmd)
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, cmd := range cmds {
			if err := f.apply(cmd); err != nil {
				cmd.SetErr(err)
				return err
			}
		}
		return nil
	}
}

func (f *fakeRedis) apply(cmd redis.Cmder) error {
	if f.failWith != nil {
		return f.failWith
	}
	args := cmd.Args()
	key := func() string { return fmt.Sprint(args[1]) }

	switch cmd.Name() {
	case "multi", "exec":
	case "get":
		n, ok := f.counters[key()]
		if !ok {
			return redis.Nil
		}
		cmd.(*redis.StringCmd).SetVal(fmt.Sprint(n))
	case "incr":
		f.counters[key()]++
		cmd.(*redis.IntCmd).SetVal(f.counters[key()])
	case "expire":
		if _, set := f.ttls[key()]; set && len(args) > 3 && args[3] == "NX" {
			cmd.(*redis.BoolCmd).SetVal(false)
			return nil
		}
		secs, _ := args[2].(int64)
		f.ttls[key()] = time.Duration(secs) * time.Second
		cmd.(*redis.BoolCmd).SetVal(true)
	case "del":
		_, existed := f.counters[key()]
		delete(f.counters, key())
		delete(f.ttls, key())
		if existed {
			cmd.(*redis.IntCmd).SetVal(1)
		}
	default:
		return fmt.Errorf("unexpected command %q", cmd.Name())
	}
	return nil
}

func TestAttemptLimiter_Defaults(t *testing.T) {
	l := NewAttemptLimiter(nil, 0, 0)
	if l.max != defaultMaxAttempts || l.lockout != defaultLockout {
		t.Fatalf("expected defaults, got %d %v", l.max, l.lockout)
	}

	custom := NewAttemptLimiter(nil, 3, time.Minute)
	if custom.max != 3 || custom.lockout != time.Minute {
		t.Fatalf("unexpected settings: %d %v", custom.max, custom.lockout)
	}
}

func TestAttemptLimiter_KeyKeepsCase(t *testing.T) {
	l := NewAttemptLimiter(nil, 0, 0)

	if got := l.key("  Alice@Example.COM "); got != "login:attempts:Alice@Example.COM" {
		t.Fatalf("unexpected key: %q", got)
	}
	if l.key("A@x.io") == l.key("a@x.io") {
		t.Fatalf("expected distinct keys for emails differing in case")
	}
}

func TestAttemptLimiter_LocksAfterMaxFailures(t *testing.T) {
	client, f := newFakeClient(t)
	l := NewAttemptLimiter(client, 3, time.Minute)
	ctx := context.Background()

	locked, err := l.Locked(ctx, "a@x.io")
	if err != nil || locked {
		t.Fatalf("expected unlocked before any failure, got %v %v", locked, err)
	}

	for i := 1; i <= 3; i++ {
		if err := l.Fail(ctx, "a@x.io"); err != nil {
			t.Fatalf("Fail %d returned error: %v", i, err)
		}
		locked, err := l.Locked(ctx, "a@x.io")
		if err != nil {
			t.Fatalf("Locked returned error: %v", err)
		}
		if want := i >= 3; locked != want {
			t.Fatalf("after %d failures: locked=%v, want %v", i, locked, want)
		}
	}

	if f.ttls["login:attempts:a@x.io"] != time.Minute {
		t.Fatalf("expected a one minute window, got %v", f.ttls["login:attempts:a@x.io"])
	}
	if locked, _ := l.Locked(ctx, "A@x.io"); locked {
		t.Fatalf("expected a differently cased email to have its own counter")
	}
}

func TestAttemptLimiter_WindowNotExtended(t *testing.T) {
	client, f := newFakeClient(t)
	l := NewAttemptLimiter(client, 5, time.Minute)
	ctx := context.Background()

	if err := l.Fail(ctx, "a@x.io"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	f.ttls["login:attempts:a@x.io"] = 10 * time.Second

	if err := l.Fail(ctx, "a@x.io"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if f.ttls["login:attempts:a@x.io"] != 10*time.Second {
		t.Fatalf("expected the first expiry to stand, got %v", f.ttls["login:attempts:a@x.io"])
	}
	if f.counters["login:attempts:a@x.io"] != 2 {
		t.Fatalf("expected 2 failures, got %d", f.counters["login:attempts:a@x.io"])
	}
}

func TestAttemptLimiter_Reset(t *testing.T) {
	client, _ := newFakeClient(t)
	l := NewAttemptLimiter(client, 1, time.Minute)
	ctx := context.Background()

	if err := l.Fail(ctx, "a@x.io"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if locked, _ := l.Locked(ctx, "a@x.io"); !locked {
		t.Fatalf("expected lock after one failure")
	}
	if err := l.Reset(ctx, "a@x.io"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if locked, err := l.Locked(ctx, "a@x.io"); err != nil || locked {
		t.Fatalf("expected unlocked after reset, got %v %v", locked, err)
	}
}

func TestAttemptLimiter_Errors(t *testing.T) {
	client, f := newFakeClient(t)
	f.failWith = errors.New("connection refused")
	l := NewAttemptLimiter(client, 3, time.Minute)
	ctx := context.Background()

	if _, err := l.Locked(ctx, "a@x.io"); err == nil {
		t.Fatalf("expected Locked to fail")
	}
	if err := l.Fail(ctx, "a@x.io"); err == nil {
		t.Fatalf("expected Fail to fail")
	}
	if err := l.Reset(ctx, "a@x.io"); err == nil {
		t.Fatalf("expected Reset to fail")
	}
}
