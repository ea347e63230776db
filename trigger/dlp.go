// Package trigger drives a DLP-IO8-G USB/serial TTL box that marks trial
// onsets and responses in EEG/MEG recordings.
package trigger

import (
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"
)

var ErrNoPing = errors.New("device did not respond to ping")

const (
	cmdPing   = 0x27 // '
	cmdBinary = 0x5C // \
	pong      = 'Q'
)

// unsetCodes turns a line number into the command that brings it low.
var unsetCodes = map[byte]byte{
	'1': 'Q', '2': 'W', '3': 'E', '4': 'R',
	'5': 'T', '6': 'Y', '7': 'U', '8': 'I',
}

// DLPIO8G implements engine.Trigger. Lines are named "1" to "8"; a string
// of several digits switches several lines at once.
type DLPIO8G struct {
	port   io.ReadWriteCloser
	logger *log.Logger
}

// Open connects to device, checks that it answers a ping and switches it
// to binary mode.
func Open(device string, baudrate int, logger *log.Logger) (*DLPIO8G, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	d, err := newDLP(port, logger)
	if err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

func newDLP(port io.ReadWriteCloser, logger *log.Logger) (*DLPIO8G, error) {
	if logger == nil {
		logger = log.Default()
	}
	d := &DLPIO8G{port: port, logger: logger}
	if !d.Ping() {
		return nil, ErrNoPing
	}
	if _, err := port.Write([]byte{cmdBinary}); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DLPIO8G) Close() {
	if d.port != nil {
		d.port.Close()
	}
}

func (d *DLPIO8G) Ping() bool {
	if _, err := d.port.Write([]byte{cmdPing}); err != nil {
		return false
	}
	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	return err == nil && n == 1 && buf[0] == pong
}

// Set brings lines high.
func (d *DLPIO8G) Set(lines string) {
	if _, err := d.port.Write([]byte(lines)); err != nil {
		d.logger.Error("trigger set", "lines", lines, "err", err)
	}
}

// Unset brings lines low.
func (d *DLPIO8G) Unset(lines string) {
	cmd := []byte(lines)
	for i, c := range cmd {
		if u, ok := unsetCodes[c]; ok {
			cmd[i] = u
		}
	}
	if _, err := d.port.Write(cmd); err != nil {
		d.logger.Error("trigger unset", "lines", lines, "err", err)
	}
}

// Pulse sets lines, waits d and unsets them.
func (d *DLPIO8G) Pulse(lines string, width time.Duration) {
	d.Set(lines)
	time.Sleep(width)
	d.Unset(lines)
}
