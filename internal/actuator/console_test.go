package actuator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	poses []Pose
	err   error
}

func (r *recordingSender) SendPanTilt(pan, tilt int) error {
	if r.err != nil {
		return r.err
	}
	r.poses = append(r.poses, Pose{Pan: pan, Tilt: tilt})
	return nil
}

func TestRunConsole(t *testing.T) {
	in := strings.NewReader("90 45\n\nnot a pose\n-10   80\n1 2 3\nEXIT\n5 5\n")
	var out bytes.Buffer
	sender := &recordingSender{}

	require.NoError(t, RunConsole(context.Background(), in, &out, sender))

	want := []Pose{{Pan: 90, Tilt: 45}, {Pan: -10, Tilt: 80}}
	if diff := cmp.Diff(want, sender.poses); diff != "" {
		t.Errorf("poses mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, strings.Count(out.String(), consoleUsage))
}

func TestRunConsole_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	sender := &recordingSender{}
	require.NoError(t, RunConsole(context.Background(), strings.NewReader("0 90"), &out, sender))
	assert.Equal(t, []Pose{{Pan: 0, Tilt: 90}}, sender.poses)
}

func TestRunConsole_SendErrorIsReported(t *testing.T) {
	var out bytes.Buffer
	sender := &recordingSender{err: errors.New("port closed")}

	require.NoError(t, RunConsole(context.Background(), strings.NewReader("1 1\nexit\n"), &out, sender))
	assert.Contains(t, out.String(), "error: port closed")
}

func TestRunConsole_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunConsole(ctx, strings.NewReader("1 1\n"), &bytes.Buffer{}, &recordingSender{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunConsole_CancelledWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{}
	done := make(chan error, 1)
	go func() { done <- RunConsole(ctx, pr, io.Discard, sender) }()

	_, err := pw.Write([]byte("10 20\n"))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunConsole did not return after cancel with idle input")
	}
	assert.Equal(t, []Pose{{Pan: 10, Tilt: 20}}, sender.poses)
}
