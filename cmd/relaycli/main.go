// Package `relaycli` implements console client of the relay server.
//
//	relaycli -addr localhost:1234 -name alice
//
// Lines typed into stdin are sent to the relay, received lines are printed to stdout,
// server announcements are highlighted.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/logging"
	"github.com/wtask/relay/internal/relay/message"
)

var serverStyle = color.New(color.FgYellow, color.OpBold)

func main() {
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", config.DefaultPort), "Address of relay server")
	name := flag.String("name", "", "Display name, asked interactively when empty")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	logger := logging.New(os.Stderr, "warn", logging.FormatConsole)
	if *noColor {
		color.Enable = false
	}

	stdin := bufio.NewScanner(os.Stdin)
	if strings.TrimSpace(*name) == "" {
		fmt.Print("Your name: ")
		if !stdin.Scan() {
			return
		}
		*name = stdin.Text()
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Error().Err(err).Str("addr", *addr).Msg("unable to connect")
		os.Exit(1)
	}
	defer conn.Close()

	if err := session(conn, *name, stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("connection failed")
		os.Exit(1)
	}
}

// session - sends the name and then every line of in, prints lines received from conn into out.
// Returns when the server closes connection or in is exhausted.
func session(conn net.Conn, name string, in *bufio.Scanner, out io.Writer) error {
	if _, err := fmt.Fprintf(conn, "%s\n", name); err != nil {
		return err
	}

	received := make(chan error, 1)
	go func() {
		r := bufio.NewScanner(conn)
		for r.Scan() {
			line := r.Text()
			if message.IsServer(line) {
				line = serverStyle.Sprint(line)
			}
			fmt.Fprintln(out, line)
		}
		received <- r.Err()
	}()

	sent := make(chan error, 1)
	go func() {
		for in.Scan() {
			if _, err := fmt.Fprintf(conn, "%s\n", in.Text()); err != nil {
				sent <- err
				return
			}
		}
		sent <- in.Err()
	}()

	select {
	case err := <-received:
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	case err := <-sent:
		// half-close lets the last lines arrive before leaving
		if tcp, ok := conn.(*net.TCPConn); ok && err == nil {
			tcp.CloseWrite()
			err = <-received
		}
		return err
	}
}
