package ntp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout верхняя граница одного обмена запрос/ответ.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultPort стандартный UDP порт NTP.
	DefaultPort = 123

	// maxDatagram размер буфера приёма; ответ длиннее PacketSize допустим.
	maxDatagram = 512
)

// ErrInvalidArgument адрес сервера пустой; сокет при этом не открывается.
var ErrInvalidArgument = errors.New("invalid argument")

// TransportError сетевая ошибка обмена (DNS, недоступность, таймаут).
// Исходная ошибка платформы доступна через Unwrap.
type TransportError struct {
	Host string
	Port int
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to contact NTP server %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout сообщает, что обмен прерван по истечении времени ожидания.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Dialer открывает connectionless сокет к удалённому адресу. *net.Dialer подходит.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client выполняет один обмен запрос/ответ по UDP.
type Client struct {
	dialer  Dialer
	timeout time.Duration
}

// NewClient создаёт клиента. timeout <= 0 заменяется на DefaultTimeout:
// обмен без ограничения по времени не допускается.
func NewClient(dialer Dialer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{dialer: dialer, timeout: timeout}
}

// Timeout текущая граница ожидания ответа.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Query отправляет запрос client/v3 и возвращает время сервера в UTC.
func (c *Client) Query(ctx context.Context, host string, port int) (time.Time, error) {
	resp, err := c.Exchange(ctx, host, port, BuildRequest())
	if err != nil {
		return time.Time{}, err
	}
	return ParseResponse(resp)
}

type exchangeResult struct {
	data []byte
	err  error
}

// Exchange открывает сокет, фиксирует удалённый адрес, отправляет request и ждёт
// одну датаграмму не дольше timeout. Сокет закрывается на любом пути выхода.
func (c *Client) Exchange(ctx context.Context, host string, port int, request []byte) ([]byte, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("%w: ntp server address is empty", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, &TransportError{Host: host, Port: port, Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &TransportError{Host: host, Port: port, Err: err}
		}
	}

	// граница по времени действует и для сокетов без поддержки deadline
	done := make(chan exchangeResult, 1)
	go func() {
		if _, err := conn.Write(request); err != nil {
			done <- exchangeResult{err: err}
			return
		}
		buf := make([]byte, maxDatagram)
		n, err := conn.Read(buf)
		if err != nil {
			done <- exchangeResult{err: err}
			return
		}
		done <- exchangeResult{data: buf[:n]}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, &TransportError{Host: host, Port: port, Err: res.err}
		}
		return res.data, nil
	case <-ctx.Done():
		return nil, &TransportError{Host: host, Port: port, Err: ctx.Err()}
	}
}
