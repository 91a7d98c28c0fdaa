package engine

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiwa/ntpsync/internal/clockadj"
	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/logger"
	"github.com/shiwa/ntpsync/internal/ntp"
)

// fakeClock часы в памяти; Local отдаёт текущее значение в зоне zone.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	zone *time.Location
	set  []time.Time
	err  error
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, zone: time.FixedZone("UTC+3", 3*3600)}
}

func (c *fakeClock) SetUTC(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = append(c.set, t)
	if c.err != nil {
		return c.err
	}
	c.now = t
	return nil
}

func (c *fakeClock) UTC() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.UTC()
}

func (c *fakeClock) Local() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.In(c.zone)
}

func (c *fakeClock) calls() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.set...)
}

type querierFunc func(ctx context.Context, host string, port int) (time.Time, error)

func (f querierFunc) Query(ctx context.Context, host string, port int) (time.Time, error) {
	return f(ctx, host, port)
}

// pipeDialer отвечает на каждый запрос через net.Pipe; respond nil означает,
// что сервер молчит.
type pipeDialer struct {
	mu      sync.Mutex
	address string
	respond func(req []byte) []byte
}

func (d *pipeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	d.mu.Lock()
	d.address = address
	d.mu.Unlock()

	client, server := net.Pipe()
	go func() {
		defer server.Close()
		req := make([]byte, ntp.PacketSize)
		if d.respond == nil {
			// читаем запрос и молчим, пока клиент не закроет соединение
			for {
				if _, err := server.Read(req); err != nil {
					return
				}
			}
		}
		n, err := server.Read(req)
		if err != nil {
			return
		}
		_, _ = server.Write(d.respond(req[:n]))
	}()
	return client, nil
}

func settingsWith(server string, port int) *config.Holder {
	s := config.NewSettings()
	s.Server.Set(server, "registry")
	s.Port.Set(port, "registry")
	return config.NewHolder(s)
}

func TestAttempt_EndToEnd(t *testing.T) {
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dialer := &pipeDialer{respond: func(req []byte) []byte {
		if len(req) != ntp.PacketSize || req[0] != 0x1B {
			return nil
		}
		resp := make([]byte, ntp.PacketSize)
		ntp.EncodeTimestamp(resp, want)
		return resp
	}}
	clock := newFakeClock(want.Add(-90 * time.Second))
	log := logger.NewMemory(0)

	e := New(settingsWith("time.example", 123), ntp.NewClient(dialer, time.Second), clock, log)
	out := e.Attempt(context.Background())

	require.True(t, out.Succeeded(), "outcome: %+v", out)
	assert.Equal(t, StageApplying, out.Stage)
	assert.Equal(t, "time.example:123", dialer.address)
	assert.Equal(t, []time.Time{want}, clock.calls())
	assert.True(t, want.Equal(out.Received))
	assert.Equal(t, 90*time.Second, out.Offset)

	local := want.In(clock.zone).Format(TimeLayout)
	assert.Equal(t, "2020-01-01 03:00:00.000 +03:00", local)
	assert.True(t, log.Contains("System time successfully set to: "+local))
	assert.True(t, log.Contains("Received NTP time from time.example: 2020-01-01 00:00:00.000 +00:00"))
}

func TestAttempt_TransportTimeout(t *testing.T) {
	clock := newFakeClock(time.Now())
	log := logger.NewMemory(0)
	e := New(settingsWith("time.example", 123), ntp.NewClient(&pipeDialer{}, 50*time.Millisecond), clock, log)

	start := time.Now()
	out := e.Attempt(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, out.Succeeded())
	assert.Equal(t, StageQuerying, out.Stage)
	assert.Equal(t, FailureQuery, out.Failure)
	var te *ntp.TransportError
	require.ErrorAs(t, out.Err, &te)
	assert.True(t, te.Timeout())
	assert.Empty(t, clock.calls())
	assert.True(t, log.Contains("Failed to retrieve time from NTP server: "))
}

func TestAttempt_ServerNotConfigured(t *testing.T) {
	queried := false
	q := querierFunc(func(context.Context, string, int) (time.Time, error) {
		queried = true
		return time.Time{}, nil
	})
	clock := newFakeClock(time.Now())
	log := logger.NewMemory(0)

	out := New(settingsWith("  ", 123), q, clock, log).Attempt(context.Background())

	assert.False(t, queried)
	assert.Equal(t, StageIdle, out.Stage)
	assert.Equal(t, FailureConfigIncomplete, out.Failure)
	assert.Equal(t, []string{"NTP server not configured."}, log.Lines())
}

func TestAttempt_MalformedResponse(t *testing.T) {
	dialer := &pipeDialer{respond: func([]byte) []byte { return make([]byte, 12) }}
	log := logger.NewMemory(0)

	out := New(settingsWith("time.example", 123), ntp.NewClient(dialer, time.Second), newFakeClock(time.Now()), log).
		Attempt(context.Background())

	assert.Equal(t, FailureQuery, out.Failure)
	assert.ErrorIs(t, out.Err, ntp.ErrMalformedResponse)
}

func TestAttempt_ApplyFailed(t *testing.T) {
	want := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	q := querierFunc(func(context.Context, string, int) (time.Time, error) { return want, nil })
	clock := newFakeClock(want)
	clock.err = &clockadj.ApplyError{Op: "clock_settime", Code: 1, Err: errors.New("operation not permitted")}
	log := logger.NewMemory(0)

	out := New(settingsWith("time.example", 123), q, clock, log).Attempt(context.Background())

	assert.Equal(t, StageApplying, out.Stage)
	assert.Equal(t, FailureApply, out.Failure)
	var ae *clockadj.ApplyError
	require.ErrorAs(t, out.Err, &ae)
	assert.Equal(t, 1, ae.Code)
	assert.True(t, log.Contains("Failed to set system time: clock_settime: operation not permitted (code 1)"))
	assert.False(t, log.Contains("Failed to retrieve time"))
	assert.Equal(t, "failed", out.Result())
}

func TestQuery_DoesNotTouchClock(t *testing.T) {
	want := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	q := querierFunc(func(context.Context, string, int) (time.Time, error) { return want, nil })
	clock := newFakeClock(want.Add(time.Minute))
	log := logger.NewMemory(0)

	out := New(settingsWith("time.example", 123), q, clock, log).Query(context.Background())

	assert.True(t, out.Succeeded())
	assert.Equal(t, StageQuerying, out.Stage)
	assert.Equal(t, -time.Minute, out.Offset)
	assert.Empty(t, clock.calls())
	assert.True(t, log.Contains("Received NTP time from time.example: 2021-06-01 12:00:00.000 +00:00"))
}

func TestQuery_FailureIsLogged(t *testing.T) {
	q := querierFunc(func(context.Context, string, int) (time.Time, error) {
		return time.Time{}, errors.New("connection refused")
	})
	log := logger.NewMemory(0)

	out := New(settingsWith("time.example", 123), q, newFakeClock(time.Now()), log).Query(context.Background())

	assert.Equal(t, FailureQuery, out.Failure)
	assert.Equal(t, []string{"Failed to retrieve time from NTP server: connection refused"}, log.Lines())
}

func TestAttempt_UsesCurrentSnapshot(t *testing.T) {
	var hosts []string
	q := querierFunc(func(_ context.Context, host string, port int) (time.Time, error) {
		hosts = append(hosts, host)
		return time.Now(), nil
	})
	h := settingsWith("a.example", 123)
	e := New(h, q, newFakeClock(time.Now()), logger.Nop{})

	e.Attempt(context.Background())
	next := config.NewSettings()
	next.Server.Set("b.example", "registry")
	h.Replace(next)
	e.Attempt(context.Background())

	assert.Equal(t, []string{"a.example", "b.example"}, hosts)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "querying", StageQuerying.String())
	assert.Equal(t, "config_incomplete", FailureConfigIncomplete.String())
	assert.Equal(t, "succeeded", Outcome{}.Result())
}
