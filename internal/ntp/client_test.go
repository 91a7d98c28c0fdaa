package ntp

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer поднимает UDP сервер на loopback, отвечающий пакетом с transmit timestamp = ts.
func startServer(t *testing.T, ts time.Time) (host string, port int, requests <-chan []byte) {
	t.Helper()
	pc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	got := make(chan []byte, 4)
	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := pc.ReadFromUDP(buf)
			if err != nil {
				return
			}
			got <- append([]byte(nil), buf[:n]...)
			resp := make([]byte, PacketSize)
			resp[0] = 0x1C
			EncodeTimestamp(resp, ts)
			_, _ = pc.WriteToUDP(resp, addr)
		}
	}()

	laddr := pc.LocalAddr().(*net.UDPAddr)
	return laddr.IP.String(), laddr.Port, got
}

func TestClient_QueryLoopback(t *testing.T) {
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	host, port, requests := startServer(t, want)

	c := NewClient(&net.Dialer{}, time.Second)
	got, err := c.Query(context.Background(), host, port)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	select {
	case req := <-requests:
		assert.Equal(t, BuildRequest(), req)
	case <-time.After(time.Second):
		t.Fatal("server did not receive request")
	}
}

// fakeConn net.Conn, чтение из которого блокируется до Close (deadline игнорируется).
type fakeConn struct {
	mu       sync.Mutex
	written  []byte
	response []byte
	readErr  error
	hang     bool
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) Read(b []byte) (int, error) {
	if c.hang {
		<-c.closed
		return 0, net.ErrClosed
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	return copy(b, c.response), nil
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, b...)
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) LocalAddr() net.Addr              { return &net.UDPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr             { return &net.UDPAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

type fakeDialer struct {
	conn    *fakeConn
	err     error
	calls   int
	address string
}

func (d *fakeDialer) DialContext(_ context.Context, network, address string) (net.Conn, error) {
	d.calls++
	d.address = address
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func TestClient_Exchange_BlankHost(t *testing.T) {
	d := &fakeDialer{conn: newFakeConn()}
	c := NewClient(d, time.Second)

	for _, host := range []string{"", "   ", "\t"} {
		_, err := c.Exchange(context.Background(), host, DefaultPort, BuildRequest())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
	assert.Zero(t, d.calls, "socket must not be opened for a blank host")
}

func TestClient_Exchange_Timeout(t *testing.T) {
	conn := newFakeConn()
	conn.hang = true
	c := NewClient(&fakeDialer{conn: conn}, 50*time.Millisecond)

	start := time.Now()
	_, err := c.Exchange(context.Background(), "time.example", DefaultPort, BuildRequest())
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Timeout())
	assert.Equal(t, "time.example", te.Host)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, conn.isClosed())
}

func TestClient_Exchange_DialError(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}
	c := NewClient(&fakeDialer{err: dnsErr}, time.Second)

	_, err := c.Exchange(context.Background(), "nowhere.invalid", 123, BuildRequest())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.False(t, te.Timeout())

	var got *net.DNSError
	assert.True(t, errors.As(err, &got))
	assert.Contains(t, err.Error(), "failed to contact NTP server nowhere.invalid:123")
}

func TestClient_Exchange_ReadErrorClosesSocket(t *testing.T) {
	conn := newFakeConn()
	conn.readErr = errors.New("connection refused")
	d := &fakeDialer{conn: conn}
	c := NewClient(d, time.Second)

	_, err := c.Exchange(context.Background(), "10.0.0.1", 1123, BuildRequest())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, conn.isClosed())
	assert.Equal(t, "10.0.0.1:1123", d.address)
	assert.Equal(t, BuildRequest(), conn.written)
}

func TestClient_Query_ShortResponse(t *testing.T) {
	conn := newFakeConn()
	conn.response = make([]byte, 12)
	c := NewClient(&fakeDialer{conn: conn}, time.Second)

	_, err := c.Query(context.Background(), "time.example", DefaultPort)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.True(t, conn.isClosed())
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewClient(&net.Dialer{}, 0).Timeout())
	assert.Equal(t, time.Second, NewClient(&net.Dialer{}, time.Second).Timeout())
}
