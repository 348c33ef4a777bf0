//go:build !rp2040 && !rp2350

// Command lensctl controls lens glasses from a host over BLE or serial.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"tinygo.org/x/bluetooth"

	"lenscode-go/client"
	"lenscode-go/protocol"
	"lenscode-go/x/logx"
)

const usage = `usage: lensctl [--serial PORT [--baud N] | --addr MAC] <command> [args]

commands:
  scan                      list nearby glasses
  ports                     list serial ports
  opacity <0-255>           static opacity, stops the session
  clear | dark              fully clear / fully dark
  hold <0-100>              hold duty, stops the session
  strobe <start> <end>      strobe sweep in Hz (1-50)
  brightness <0-100>        maximum brightness
  breathing <in> <hi> <ex> <ho>
                            breathing timings in seconds
  duration <1-60>           session length in minutes
  session <preset> [mins]   start a preset session (%s)
  resume                    restart the session
  sleep                     put the device to sleep
`

func main() {
	fs := flag.NewFlagSet("lensctl", flag.ExitOnError)
	port := fs.String("serial", "", "serial device instead of BLE")
	baud := fs.Int("baud", 115200, "serial baud rate")
	addr := fs.String("addr", "", "BLE address (default: strongest signal)")
	hci := fs.String("adapter", "hci0", "BlueZ adapter (Linux)")
	timeout := fs.Duration("timeout", 5*time.Second, "scan/connect timeout")
	logLevel := fs.String("log", "warn", "log level")
	fs.Usage = func() { fmt.Fprintf(os.Stderr, usage, presetList()) }
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 1 {
		fs.Usage()
		os.Exit(1)
	}

	level, err := logx.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{
		serial:  *port,
		baud:    *baud,
		addr:    *addr,
		adapter: *hci,
		timeout: *timeout,
		opts:    client.Options{Logger: logx.New(os.Stderr, logx.Options{Level: level, Pretty: true, App: "lensctl"})},
	}
	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	serial  string
	baud    int
	addr    string
	adapter string
	timeout time.Duration
	opts    client.Options
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "scan":
		return a.scan(ctx)
	case "ports":
		return a.ports()
	}

	send, err := a.command(cmd, args)
	if err != nil {
		return err
	}
	g, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer g.Close()
	if err := send(ctx, g); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

type action func(ctx context.Context, g *client.Glasses) error

// command validates args before anything connects.
func (a *app) command(cmd string, args []string) (action, error) {
	switch cmd {
	case "opacity":
		n, err := intArg(args, 0, "level")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.Opacity(ctx, n) }, nil
	case "clear":
		return func(ctx context.Context, g *client.Glasses) error { return g.Clear(ctx) }, nil
	case "dark":
		return func(ctx context.Context, g *client.Glasses) error { return g.Dark(ctx) }, nil
	case "hold":
		n, err := intArg(args, 0, "duty")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.Hold(ctx, n) }, nil
	case "strobe":
		s, err := intArg(args, 0, "start")
		if err != nil {
			return nil, err
		}
		e, err := intArg(args, 1, "end")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.Strobe(ctx, s, e) }, nil
	case "brightness":
		n, err := intArg(args, 0, "percent")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.Brightness(ctx, n) }, nil
	case "breathing":
		var d [4]time.Duration
		for i, name := range []string{"inhale", "hold-in", "exhale", "hold-out"} {
			v, err := secondsArg(args, i, name)
			if err != nil {
				return nil, err
			}
			d[i] = v
		}
		return func(ctx context.Context, g *client.Glasses) error {
			return g.Breathing(ctx, d[0], d[1], d[2], d[3])
		}, nil
	case "duration":
		n, err := intArg(args, 0, "minutes")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.Duration(ctx, n) }, nil
	case "session":
		if len(args) < 1 {
			return nil, fmt.Errorf("session: missing preset (%s)", presetList())
		}
		p, err := protocol.LookupPreset(args[0])
		if err != nil {
			return nil, err
		}
		if len(args) > 1 {
			n, err := intArg(args, 1, "minutes")
			if err != nil {
				return nil, err
			}
			p = p.WithDuration(n)
		}
		return func(ctx context.Context, g *client.Glasses) error { return g.StartSession(ctx, p) }, nil
	case "resume":
		return func(ctx context.Context, g *client.Glasses) error { return g.Resume(ctx) }, nil
	case "sleep":
		return func(ctx context.Context, g *client.Glasses) error { return g.Sleep(ctx) }, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) connect(ctx context.Context) (*client.Glasses, error) {
	if a.serial != "" {
		s, err := client.DialSerial(a.serial, a.baud)
		if err != nil {
			return nil, err
		}
		return client.New(s, a.opts), nil
	}
	if err := client.EnsureAdapter(a.adapter); err != nil {
		return nil, err
	}
	b, err := client.DialBLE(ctx, bluetooth.DefaultAdapter, a.addr, a.timeout)
	if err != nil {
		return nil, err
	}
	return client.New(b, a.opts), nil
}

func (a *app) scan(ctx context.Context) error {
	if err := client.EnsureAdapter(a.adapter); err != nil {
		return err
	}
	found, err := client.Scan(ctx, bluetooth.DefaultAdapter, a.timeout)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no glasses found")
		return nil
	}
	for _, d := range found {
		fmt.Printf("%s  RSSI: %d\n", d, d.RSSI)
	}
	return nil
}

func (a *app) ports() error {
	names, err := client.SerialPorts()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func intArg(args []string, i int, name string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func secondsArg(args []string, i int, name string) (time.Duration, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func presetList() string {
	s := ""
	for i, n := range protocol.PresetNames() {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s
}
