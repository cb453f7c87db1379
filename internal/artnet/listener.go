// Package artnet listens for Art-Net DMX packets and extracts a 16-bit
// brightness value from a configured pair of channels.
package artnet

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"net"
	"sync"
)

const (
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454

	// MaxNits caps the scaled brightness value.
	MaxNits = 11000

	opDMX = 0x5000
)

var header = []byte("Art-Net\x00")

// Nits scales a 16-bit DMX value (0-65535) to display nits (0-MaxNits).
func Nits(value16 int) int {
	return int(float64(value16)/65535*MaxNits + 0.5)
}

// Listener receives ArtDmx packets on a UDP socket, combines the high/low
// channel pair into a 16-bit value, and reports changes in nits via the
// callback.
type Listener struct {
	port        int
	universe    int
	channelHigh int
	channelLow  int
	onChange    func(nits int)
	logger      *slog.Logger

	conn *net.UDPConn
	wg   sync.WaitGroup

	mu   sync.Mutex
	last int
	seen bool
}

// NewListener creates a listener. DMX channels are 1-indexed. onChange may
// be nil.
func NewListener(port, universe, channelHigh, channelLow int, onChange func(int), logger *slog.Logger) *Listener {
	if port == 0 {
		port = DefaultPort
	}
	return &Listener{
		port:        port,
		universe:    universe,
		channelHigh: channelHigh,
		channelLow:  channelLow,
		onChange:    onChange,
		logger:      logger,
	}
}

// Start binds the UDP socket and begins reading packets in the background.
func (l *Listener) Start() error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: l.port})
	if err != nil {
		return err
	}
	l.conn = conn

	l.wg.Add(1)
	go l.readLoop()

	l.logger.Info("artnet listener started",
		"port", l.port, "universe", l.universe,
		"channel_high", l.channelHigh, "channel_low", l.channelLow)
	return nil
}

// Stop closes the socket and waits for the read loop to exit.
func (l *Listener) Stop() {
	if l.conn == nil {
		return
	}
	l.conn.Close()
	l.wg.Wait()
	l.logger.Info("artnet listener stopped")
}

// Current returns the latest brightness in nits, 0 before the first packet.
func (l *Listener) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func (l *Listener) readLoop() {
	defer l.wg.Done()

	buf := make([]byte, 1024)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			// Closed socket ends the loop.
			return
		}
		value16, ok := l.parsePacket(buf[:n])
		if !ok {
			continue
		}
		l.handleValue(value16)
	}
}

// parsePacket validates an ArtDmx packet for the configured universe and
// extracts the combined 16-bit channel value.
//
// ArtDmx layout: bytes 0-7 "Art-Net\0", 8-9 opcode (little-endian), 10-11
// protocol version, 12 sequence, 13 physical port, 14-15 universe
// (little-endian), 16-17 DMX length (big-endian), 18+ DMX data.
func (l *Listener) parsePacket(data []byte) (int, bool) {
	if len(data) < 18 {
		return 0, false
	}
	if !bytes.Equal(data[:8], header) {
		return 0, false
	}
	if binary.LittleEndian.Uint16(data[8:10]) != opDMX {
		return 0, false
	}
	if int(binary.LittleEndian.Uint16(data[14:16])) != l.universe {
		return 0, false
	}

	dmxLength := int(binary.BigEndian.Uint16(data[16:18]))
	minChannel := l.channelHigh
	maxChannel := l.channelLow
	if minChannel > maxChannel {
		minChannel, maxChannel = maxChannel, minChannel
	}
	// Both channels must sit inside the 1-indexed DMX payload; a channel
	// below 1 would index before the data.
	if minChannel < 1 || maxChannel > dmxLength {
		return 0, false
	}

	dmx := data[18:]
	highIdx := l.channelHigh - 1
	lowIdx := l.channelLow - 1
	if highIdx >= len(dmx) || lowIdx >= len(dmx) {
		return 0, false
	}

	return int(dmx[highIdx])*256 + int(dmx[lowIdx]), true
}

func (l *Listener) handleValue(value16 int) {
	nits := Nits(value16)

	l.mu.Lock()
	changed := !l.seen || nits != l.last
	l.last = nits
	l.seen = true
	l.mu.Unlock()

	if !changed {
		return
	}
	l.logger.Debug("artnet brightness changed", "value16", value16, "nits", nits)
	if l.onChange != nil {
		l.onChange(nits)
	}
}
