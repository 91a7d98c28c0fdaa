// Package ntp реализует минимальный NTP клиент: один запрос v3 в режиме client,
// один ответ, из которого берётся transmit timestamp сервера.
package ntp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// PacketSize размер NTP пакета без extension fields и аутентификации.
	PacketSize = 48

	// Смещения transmit timestamp в ответе (RFC 1305, big-endian).
	secondsOffset  = 40
	fractionOffset = 44

	// Первый октет запроса: LI=0, VN=3, Mode=3 (client).
	clientV3Header = 0x1B
)

// ErrMalformedResponse ответ отсутствует или короче PacketSize.
var ErrMalformedResponse = errors.New("invalid NTP response")

// Epoch начало отсчёта NTP времени.
var Epoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Version версия протокола в заголовке пакета.
type Version uint8

const (
	Version2 Version = 2
	Version3 Version = 3
)

// Mode режим ассоциации в заголовке пакета.
type Mode uint8

const (
	ModeClient Mode = 3
	ModeServer Mode = 4
)

// NewRequest возвращает пакет запроса. Поддерживается только client/v3:
// любая другая комбинация означает ошибку в вызывающем коде, а не в сети.
func NewRequest(version Version, mode Mode) []byte {
	if version != Version3 || mode != ModeClient {
		panic(fmt.Sprintf("ntp: unsupported request version=%d mode=%d", version, mode))
	}
	buf := make([]byte, PacketSize)
	buf[0] = clientV3Header
	return buf
}

// BuildRequest запрос client/v3: нулевой буфер с 0x1B в первом октете.
func BuildRequest() []byte {
	return NewRequest(Version3, ModeClient)
}

// ParseResponse извлекает transmit timestamp сервера и переводит его в UTC
// с точностью до миллисекунды.
func ParseResponse(data []byte) (time.Time, error) {
	if len(data) < PacketSize {
		return time.Time{}, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedResponse, len(data), PacketSize)
	}

	seconds := networkUint32(data[secondsOffset:])
	fraction := networkUint32(data[fractionOffset:])

	return Epoch.Add(time.Duration(toMilliseconds(seconds, fraction)) * time.Millisecond), nil
}

// networkUint32 читает поле в порядке хоста (little-endian) и разворачивает байты.
func networkUint32(b []byte) uint32 {
	return SwapEndianness(binary.LittleEndian.Uint32(b))
}

// toMilliseconds seconds*1000 + fraction*1000/2^32 с округлением к ближайшей миллисекунде.
func toMilliseconds(seconds, fraction uint32) int64 {
	frac := (uint64(fraction)*1000 + 1<<31) >> 32
	return int64(seconds)*1000 + int64(frac)
}

// SwapEndianness меняет порядок байт 32-битного слова.
func SwapEndianness(x uint32) uint32 {
	return (x >> 24) |
		((x & 0x00FF0000) >> 8) |
		((x & 0x0000FF00) << 8) |
		(x << 24)
}

// EncodeTimestamp записывает t в поле transmit timestamp пакета (используется
// тестовыми серверами и для диагностики). Пакет должен быть не короче PacketSize.
func EncodeTimestamp(packet []byte, t time.Time) {
	d := t.Sub(Epoch)
	sec := uint32(d / time.Second)
	frac := uint32((uint64(d%time.Second) << 32) / uint64(time.Second))
	binary.BigEndian.PutUint32(packet[secondsOffset:], sec)
	binary.BigEndian.PutUint32(packet[fractionOffset:], frac)
}
