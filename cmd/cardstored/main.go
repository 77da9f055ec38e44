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

// Command cardstored serves the card store line protocol on a host serial
// link, stdin, or a websocket bridge.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-cardstore"
	"github.com/ZaparooProject/go-cardstore/bridge"
	"github.com/ZaparooProject/go-cardstore/config"
	"github.com/ZaparooProject/go-cardstore/console"
	"github.com/ZaparooProject/go-cardstore/detection"
)

type flags struct {
	configPath *string
	reader     *string
	device     *string
	powerPin   *string
	host       *string
	listen     *string
	debug      *bool
	list       *bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{
		configPath: fs.String("config", "/etc/cardstored/config.yaml", "Path to config file"),
		reader: fs.String("reader", "",
			"Reader backend: pn532-uart, pn532-i2c, pcsc or virtual"),
		device:   fs.String("device", "", "Reader device: serial port, I2C bus or PC/SC reader name"),
		powerPin: fs.String("power-pin", "", "GPIO driving the PN532 power line (e.g. GPIO17)"),
		host:     fs.String("host", "", "Host link: serial port, or - for stdin/stdout"),
		listen:   fs.String("listen", "", "Websocket bridge address (e.g. :8080)"),
		debug:    fs.Bool("debug", false, "Enable debug output"),
		list:     fs.Bool("list", false, "List candidate reader ports and exit"),
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *flags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "reader":
			cfg.Reader.Type = *f.reader
		case "device":
			cfg.Reader.Device = *f.device
		case "power-pin":
			cfg.Reader.PowerPin = *f.powerPin
		case "host":
			cfg.Host.Port = *f.host
		case "listen":
			cfg.Bridge.ListenAddr = *f.listen
		case "debug":
			cfg.Debug = *f.debug
		}
	})
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Printf("[main] %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("cardstored", flag.ContinueOnError)
	f, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	if *f.list {
		return listDevices(stdout)
	}

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	cardstore.SetDebugEnabled(cfg.Debug)
	log.Printf("[main] cardstored %s starting, reader %s", cfg.Engine.Version, cfg.Reader.Type)

	hw, closeHW, err := openHardware(cfg.Reader)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeHW(); err != nil {
			log.Printf("[reader] close: %v", err)
		}
	}()

	engine, err := cardstore.NewEngine(hw,
		cardstore.WithVersion(cfg.Engine.Version),
		cardstore.WithSettleDelay(cfg.Engine.SettleDelay),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	if err := engine.Init(ctx); err != nil {
		log.Printf("[reader] %v", err)
	}
	dispatcher := cardstore.NewDispatcher(engine)

	errCh := make(chan error, 2)
	running := 0

	if cfg.Bridge.ListenAddr != "" {
		running++
		go func() {
			errCh <- bridge.New(dispatcher).ListenAndServe(ctx, cfg.Bridge.ListenAddr)
		}()
	}

	hostR, hostW, closeHost, err := openHost(cfg.Host, stdin, stdout)
	if err != nil {
		return err
	}
	defer func() { _ = closeHost() }()
	running++
	go func() {
		log.Printf("[host] serving on %s", cfg.Host.Port)
		errCh <- console.Run(ctx, dispatcher, hostR, hostW)
	}()

	for running > 0 {
		select {
		case <-ctx.Done():
			log.Printf("[main] shutting down")
			return nil
		case err := <-errCh:
			running--
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
	return nil
}

// openHost returns the command link. "-" is stdin/stdout.
func openHost(cfg config.HostConfig, stdin io.Reader, stdout io.Writer) (io.Reader, io.Writer, func() error, error) {
	if cfg.Port == "-" {
		return stdin, stdout, func() error { return nil }, nil
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open host port %s: %w", cfg.Port, err)
	}
	return port, port, port.Close, nil
}

func listDevices(w io.Writer) error {
	devices, err := detection.All(detection.DefaultOptions())
	if err != nil {
		return err
	}
	for _, d := range devices {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}
