// go-cardstore
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cardstore.
//
// go-cardstore is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cardstore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cardstore; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package pn532

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-cardstore"
	"github.com/ZaparooProject/go-cardstore/internal/transport"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Timeout is passed to the transport as its read timeout
	Timeout time.Duration
	// HandshakeRetries is how many extra firmware probes a handshake makes
	HandshakeRetries int
	// RetryDelay is the pause between firmware probes
	RetryDelay time.Duration
	// PassiveActivationRetries is written to RF item 0x05 during the handshake
	PassiveActivationRetries byte
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:                  1 * time.Second,
		HandshakeRetries:         3,
		RetryDelay:               10 * time.Millisecond,
		PassiveActivationRetries: 0xFE,
	}
}

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithPowerPin sets the pin that drives RSTPDN
func WithPowerPin(pin PowerPin) Option {
	return func(d *Device) error {
		if pin == nil {
			return fmt.Errorf("%w: power pin must not be nil", ErrInvalidParameter)
		}
		d.power = pin
		return nil
	}
}

// WithTimeout sets the transport read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
		}
		d.config.Timeout = timeout
		return nil
	}
}

// WithHandshakeRetries sets how often the firmware probe is repeated
func WithHandshakeRetries(retries int, delay time.Duration) Option {
	return func(d *Device) error {
		if retries < 0 || delay < 0 {
			return fmt.Errorf("%w: retries and delay must not be negative", ErrInvalidParameter)
		}
		d.config.HandshakeRetries = retries
		d.config.RetryDelay = delay
		return nil
	}
}

// WithPassiveActivationRetries sets the MxRtyPassiveActivation value
func WithPassiveActivationRetries(retries byte) Option {
	return func(d *Device) error {
		d.config.PassiveActivationRetries = retries
		return nil
	}
}

// FirmwareVersion is the GetFirmwareVersion reply
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", f.IC, f.Version, f.Revision)
}

// Device represents a PN532 reader attached over a Transport.
//
// Thread Safety: Device is NOT thread-safe. cardstore.Engine serializes its
// sessions, which is the only intended caller.
type Device struct {
	transport Transport
	power     PowerPin
	config    *DeviceConfig
	firmware  *FirmwareVersion
}

// New creates a new PN532 device with the given transport
func New(t Transport, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	device := &Device{
		transport: t,
		power:     NoopPowerPin{},
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if err := t.SetTimeout(device.config.Timeout); err != nil {
		return nil, fmt.Errorf("failed to set transport timeout: %w", err)
	}
	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Firmware returns the version read by the last successful handshake, or
// nil while the module is powered down.
func (d *Device) Firmware() *FirmwareVersion {
	return d.firmware
}

// Close closes the transport
func (d *Device) Close() error {
	return d.transport.Close()
}

// SetPower implements cardstore.Hardware
func (d *Device) SetPower(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !on {
		d.firmware = nil
	}
	if err := d.power.Set(on); err != nil {
		return fmt.Errorf("failed to drive power pin: %w", err)
	}
	debugln("power", on)
	return nil
}

// Handshake implements cardstore.Hardware: firmware probe, SAM
// configuration and passive activation retries.
func (d *Device) Handshake(ctx context.Context) error {
	if w, ok := d.transport.(Waker); ok {
		if err := w.Wake(ctx); err != nil {
			return fmt.Errorf("failed to wake module: %w", err)
		}
	}

	var lastErr error
	fw, err := transport.WithRetry(transport.RetryConfig{
		Description: "GetFirmwareVersion",
		MaxRetries:  d.config.HandshakeRetries,
		RetryDelay:  d.config.RetryDelay,
	}, func() (*FirmwareVersion, bool, error) {
		fw, probeErr := d.GetFirmwareVersion(ctx)
		if probeErr == nil {
			return fw, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		debugf("firmware probe failed: %v", probeErr)
		lastErr = probeErr
		return nil, true, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("%w: %w: %w", ErrFirmwareNotFound, err, lastErr)
		}
		return fmt.Errorf("%w: %w", ErrFirmwareNotFound, err)
	}
	debugf("firmware %s", fw)

	if err := d.SAMConfiguration(ctx); err != nil {
		return err
	}
	if err := d.SetPassiveActivationRetries(ctx, d.config.PassiveActivationRetries); err != nil {
		return err
	}
	d.firmware = fw
	return nil
}

// GetFirmwareVersion probes the IC
func (d *Device) GetFirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	resp, err := d.sendCommand(ctx, cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, err
	}
	if len(resp) < 5 {
		return nil, fmt.Errorf("%w: firmware reply of %d bytes", ErrInvalidResponse, len(resp))
	}
	if resp[1] != icPN532 {
		return nil, fmt.Errorf("%w: unexpected IC 0x%02X", ErrInvalidResponse, resp[1])
	}
	return &FirmwareVersion{IC: resp[1], Version: resp[2], Revision: resp[3], Support: resp[4]}, nil
}

// SAMConfiguration puts the SAM in normal mode so the PN532 acts as a reader
func (d *Device) SAMConfiguration(ctx context.Context) error {
	if _, err := d.sendCommand(ctx, cmdSamConfiguration, []byte{samModeNormal, samTimeout, samUseIRQ}); err != nil {
		return fmt.Errorf("SAM configuration failed: %w", err)
	}
	return nil
}

// SetPassiveActivationRetries sets how often InListPassiveTarget retries
// activation. 0xFF retries forever.
func (d *Device) SetPassiveActivationRetries(ctx context.Context, retries byte) error {
	// MxRtyATR, MxRtyPSL, MxRtyPassiveActivation
	args := []byte{rfItemMaxRetry, 0xFF, 0x01, retries}
	if _, err := d.sendCommand(ctx, cmdRFConfiguration, args); err != nil {
		return fmt.Errorf("RF configuration failed: %w", err)
	}
	return nil
}

// DetectCard implements cardstore.Hardware using InListPassiveTarget at
// 106 kbps type A.
func (d *Device) DetectCard(ctx context.Context) ([]byte, error) {
	resp, err := d.sendCommand(ctx, cmdInListPassiveTarget, []byte{maxTargets, brTy106kbpsA})
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: InListPassiveTarget reply too short", ErrInvalidResponse)
	}
	if resp[1] == 0 {
		return nil, ErrNoTagDetected
	}

	// Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID
	if len(resp) < 7 {
		return nil, fmt.Errorf("%w: target data truncated", ErrInvalidResponse)
	}
	uidLen := int(resp[6])
	if uidLen == 0 || len(resp) < 7+uidLen {
		return nil, fmt.Errorf("%w: UID length %d", ErrInvalidResponse, uidLen)
	}

	uid := make([]byte, uidLen)
	copy(uid, resp[7:7+uidLen])
	debugf("target %d SAK 0x%02X UID %X", resp[2], resp[5], uid)
	return uid, nil
}

// Authenticate implements cardstore.Hardware with MIFARE Classic key A/B
// authentication.
func (d *Device) Authenticate(
	ctx context.Context, uid []byte, block uint8, keyType cardstore.KeyType, key []byte,
) error {
	if len(key) != mifareKeyLen {
		return fmt.Errorf("%w: key must be %d bytes", ErrInvalidParameter, mifareKeyLen)
	}
	if len(uid) < mifareUIDBytes {
		return fmt.Errorf("%w: UID must be at least %d bytes", ErrInvalidParameter, mifareUIDBytes)
	}
	if keyType != cardstore.KeyA && keyType != cardstore.KeyB {
		return fmt.Errorf("%w: key type 0x%02X", ErrInvalidParameter, byte(keyType))
	}

	args := make([]byte, 0, 3+mifareKeyLen+mifareUIDBytes)
	args = append(args, dataTarget, mifareCmdAuthA+byte(keyType), block)
	args = append(args, key...)
	args = append(args, uid[len(uid)-mifareUIDBytes:]...)
	defer clear(args)

	debugf("authenticate block %d with key %s", block, keyType)
	if _, err := d.dataExchange(ctx, args); err != nil {
		return fmt.Errorf("%w: block %d: %w", ErrAuthenticationFailed, block, err)
	}
	return nil
}

// ReadBlock implements cardstore.Hardware
func (d *Device) ReadBlock(ctx context.Context, block uint8) ([]byte, error) {
	resp, err := d.dataExchange(ctx, []byte{dataTarget, mifareCmdRead, block})
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", block, err)
	}
	if len(resp) < mifareBlockLen {
		return nil, fmt.Errorf("%w: read block %d returned %d bytes", ErrInvalidResponse, block, len(resp))
	}
	return resp[:mifareBlockLen], nil
}

// WriteBlock implements cardstore.Hardware
func (d *Device) WriteBlock(ctx context.Context, block uint8, data []byte) error {
	if len(data) != mifareBlockLen {
		return fmt.Errorf("%w: data must be exactly %d bytes, got %d", ErrInvalidParameter, mifareBlockLen, len(data))
	}
	args := make([]byte, 0, 3+mifareBlockLen)
	args = append(args, dataTarget, mifareCmdWrite, block)
	args = append(args, data...)
	if _, err := d.dataExchange(ctx, args); err != nil {
		return fmt.Errorf("write block %d: %w", block, err)
	}
	return nil
}

// dataExchange runs InDataExchange and returns the bytes after the status.
func (d *Device) dataExchange(ctx context.Context, args []byte) ([]byte, error) {
	resp, err := d.sendCommand(ctx, cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: InDataExchange reply too short", ErrInvalidResponse)
	}
	if status := resp[1] & statusErrMask; status != statusOK {
		if status == statusAuthErr {
			return nil, fmt.Errorf("%w: status 0x%02X", ErrAuthenticationFailed, status)
		}
		return nil, fmt.Errorf("%w: status 0x%02X", ErrCommandFailed, status)
	}
	return resp[2:], nil
}

func (d *Device) sendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		resp []byte
		err  error
	)
	if ct, ok := d.transport.(ContextTransport); ok {
		resp, err = ct.SendCommandWithContext(ctx, cmd, args)
	} else {
		resp, err = d.transport.SendCommand(cmd, args)
	}
	if err != nil {
		return nil, fmt.Errorf("command 0x%02X: %w", cmd, err)
	}
	if len(resp) == 0 || resp[0] != cmd+1 {
		return nil, fmt.Errorf("%w: unexpected reply to command 0x%02X", ErrInvalidResponse, cmd)
	}
	return resp, nil
}

var _ cardstore.Hardware = (*Device)(nil)
