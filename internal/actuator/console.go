package actuator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const consoleUsage = "Invalid input. Enter two integers separated by a space (e.g., '90 45')."

// PoseSender is the part of Link the console needs.
type PoseSender interface {
	SendPanTilt(pan, tilt int) error
}

// RunConsole reads "pan tilt" lines from in and sends each pose until "exit",
// end of input or ctx is done. Malformed lines print a usage hint and failed
// sends are reported on out; neither ends the session.
func RunConsole(ctx context.Context, in io.Reader, out io.Writer, link PoseSender) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	// a blocked read on an idle terminal must not hold up cancellation
	go func() {
		defer close(lines)
		scan := bufio.NewScanner(in)
		for scan.Scan() {
			select {
			case lines <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scan.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			return nil
		}
		pan, tilt, err := parseConsoleLine(line)
		if err != nil {
			fmt.Fprintln(out, consoleUsage)
			continue
		}
		if err := link.SendPanTilt(pan, tilt); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func parseConsoleLine(line string) (pan, tilt int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	if pan, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, err
	}
	if tilt, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, err
	}
	return pan, tilt, nil
}
