package ambient

import (
	"bytes"
	"context"
	"errors"
	stdcolor "image/color"
	"testing"
	"time"

	"github.com/dokzlo13/ambilightd/internal/capture"
	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/lamp"
	"github.com/dokzlo13/ambilightd/internal/protocol"
)

type supervisorRig struct {
	sup     *Supervisor
	leftTr  *lamp.FakeTransport
	rightTr *lamp.FakeTransport
	left    *lamp.Channel
	right   *lamp.Channel
	src     *capture.FakeSource
}

func newSupervisorRig(t *testing.T) *supervisorRig {
	t.Helper()
	disp := testDisplay()
	cfg := lamp.ChannelConfig{
		ConnectTimeout: time.Second,
		RetryAttempts:  2,
		RetryDelay:     time.Millisecond,
	}

	leftTr := lamp.NewFakeTransport()
	rightTr := lamp.NewFakeTransport()
	left := lamp.NewChannel("left", leftTr, cfg)
	right := lamp.NewChannel("right", rightTr, cfg)

	img := capture.SplitImage(disp.Bounds,
		stdcolor.RGBA{R: 255, A: 255},
		stdcolor.RGBA{B: 255, A: 255})
	src := capture.NewFakeSource(img)
	sampler := capture.NewSampler(src, capture.Config{})

	return &supervisorRig{
		sup:     NewSupervisor(disp, left, right, sampler, nil),
		leftTr:  leftTr,
		rightTr: rightTr,
		left:    left,
		right:   right,
		src:     src,
	}
}

func TestSupervisorConnectBoth(t *testing.T) {
	rig := newSupervisorRig(t)

	result := rig.sup.ConnectBoth(context.Background())
	if !result.AllOK() {
		t.Fatalf("connect both: %v", result)
	}

	states := rig.sup.States()
	if states[SideLeft] != lamp.StateConnected || states[SideRight] != lamp.StateConnected {
		t.Errorf("states = %v, want both connected", states)
	}
}

func TestSupervisorConnectBothPartialFailure(t *testing.T) {
	rig := newSupervisorRig(t)
	rig.rightTr.ConnectErrs = []error{errors.New("device not found")}

	result := rig.sup.ConnectBoth(context.Background())

	if result[SideLeft] != nil {
		t.Errorf("left: %v, want success", result[SideLeft])
	}
	if result[SideRight] == nil {
		t.Error("right: want error")
	}
	if result.AllOK() {
		t.Error("AllOK = true with a failed side")
	}
	if !result.AnyOK() {
		t.Error("AnyOK = false with a live side")
	}

	// The failed side stays Disconnected, the live side is usable.
	if got := rig.right.State(); got != lamp.StateDisconnected {
		t.Errorf("right state = %s, want Disconnected", got)
	}
	if got := rig.left.State(); got != lamp.StateConnected {
		t.Errorf("left state = %s, want Connected", got)
	}
}

func TestSupervisorReconnectBoth(t *testing.T) {
	t.Run("connected side is untouched", func(t *testing.T) {
		rig := newSupervisorRig(t)
		rig.sup.ConnectBoth(context.Background())
		before := rig.leftTr.Connects()

		result := rig.sup.ReconnectBoth(context.Background())
		if !result.AllOK() {
			t.Fatalf("reconnect: %v", result)
		}
		if got := rig.leftTr.Connects(); got != before {
			t.Errorf("connected side redialed: %d -> %d connects", before, got)
		}
	})

	t.Run("failed side is reset and redialed", func(t *testing.T) {
		rig := newSupervisorRig(t)
		rig.sup.ConnectBoth(context.Background())

		// Exhaust the right channel's retry budget.
		rig.rightTr.SetWriteErrs([]error{errors.New("link lost")})
		rig.rightTr.ConnectErrs = []error{errors.New("still down")}
		_ = rig.right.Send(context.Background(), protocol.Off())
		_ = rig.right.Reconnect(context.Background())
		if got := rig.right.State(); got != lamp.StateFailed {
			t.Fatalf("setup: right state = %s, want Failed", got)
		}

		// Device comes back.
		rig.rightTr.ConnectErrs = []error{nil}
		rig.rightTr.SetWriteErrs(nil)

		result := rig.sup.ReconnectBoth(context.Background())
		if !result.AllOK() {
			t.Fatalf("reconnect: %v", result)
		}
		if got := rig.right.State(); got != lamp.StateConnected {
			t.Errorf("right state = %s, want Connected", got)
		}
	})

	t.Run("disconnected side is dialed", func(t *testing.T) {
		rig := newSupervisorRig(t)

		result := rig.sup.ReconnectBoth(context.Background())
		if !result.AllOK() {
			t.Fatalf("reconnect: %v", result)
		}
		states := rig.sup.States()
		if states[SideLeft] != lamp.StateConnected || states[SideRight] != lamp.StateConnected {
			t.Errorf("states = %v, want both connected", states)
		}
	})
}

func TestSupervisorManualColors(t *testing.T) {
	rig := newSupervisorRig(t)
	rig.sup.ConnectBoth(context.Background())

	if err := rig.sup.SetColor(context.Background(), SideLeft, color.RGB{R: 255}); err != nil {
		t.Fatalf("set left: %v", err)
	}
	if got, want := rig.leftTr.Frames()[0], protocol.Red().Bytes(); !bytes.Equal(got, want) {
		t.Errorf("left frame = %x, want %x", got, want)
	}
	if n := len(rig.rightTr.Frames()); n != 0 {
		t.Errorf("right received %d frames from single-side set", n)
	}

	result := rig.sup.SetBoth(context.Background(), color.RGB{G: 255})
	if !result.AllOK() {
		t.Fatalf("set both: %v", result)
	}
	want := protocol.Green().Bytes()
	if got := rig.rightTr.Frames()[0]; !bytes.Equal(got, want) {
		t.Errorf("right frame = %x, want %x", got, want)
	}

	result = rig.sup.TurnOffBoth(context.Background())
	if !result.AllOK() {
		t.Fatalf("turn off: %v", result)
	}
	frames := rig.leftTr.Frames()
	if got, want := frames[len(frames)-1], protocol.Off().Bytes(); !bytes.Equal(got, want) {
		t.Errorf("last left frame = %x, want off %x", got, want)
	}
}

func TestSupervisorAmbientLifecycle(t *testing.T) {
	rig := newSupervisorRig(t)
	rig.sup.ConnectBoth(context.Background())

	if rig.sup.Running() {
		t.Fatal("running before start")
	}

	params := neutralParams(100)
	if err := rig.sup.StartAmbient(context.Background(), params); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !rig.sup.Running() {
		t.Error("not running after start")
	}

	if err := rig.sup.StartAmbient(context.Background(), params); !errors.Is(err, ErrSessionRunning) {
		t.Errorf("second start: %v, want ErrSessionRunning", err)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		return len(rig.leftTr.Frames()) > 0 && len(rig.rightTr.Frames()) > 0
	})
	if !ok {
		t.Error("ambient session produced no frames")
	}

	// Left half red, right half blue.
	if got, want := rig.leftTr.Frames()[0], protocol.Encode(color.RGB{R: 255}).Bytes(); !bytes.Equal(got, want) {
		t.Errorf("left frame = %x, want %x", got, want)
	}
	if got, want := rig.rightTr.Frames()[0], protocol.Encode(color.RGB{B: 255}).Bytes(); !bytes.Equal(got, want) {
		t.Errorf("right frame = %x, want %x", got, want)
	}

	rig.sup.StopAmbient()
	if rig.sup.Running() {
		t.Error("still running after stop")
	}
	rig.sup.StopAmbient() // no-op when idle

	// A fresh session can start after stop.
	if err := rig.sup.StartAmbient(context.Background(), params); err != nil {
		t.Fatalf("restart: %v", err)
	}
	rig.sup.StopAmbient()
}

func TestSupervisorAmbientFeedsLiveSideOnly(t *testing.T) {
	rig := newSupervisorRig(t)
	rig.rightTr.ConnectErrs = []error{errors.New("device not found")}
	rig.sup.ConnectBoth(context.Background())

	if err := rig.sup.StartAmbient(context.Background(), neutralParams(100)); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rig.sup.StopAmbient()

	if !waitFor(t, 2*time.Second, func() bool { return len(rig.leftTr.Frames()) >= 3 }) {
		t.Fatal("live side received no frames")
	}
	if n := len(rig.rightTr.Frames()); n != 0 {
		t.Errorf("dead side received %d frames", n)
	}
}

func newSingleSupervisorRig(t *testing.T) (*Supervisor, *lamp.FakeTransport) {
	t.Helper()
	disp := testDisplay()
	tr := lamp.NewFakeTransport()
	left := lamp.NewChannel("left", tr, lamp.ChannelConfig{
		ConnectTimeout: time.Second,
		RetryAttempts:  2,
		RetryDelay:     time.Millisecond,
	})

	img := capture.SolidImage(disp.Bounds, stdcolor.RGBA{R: 255, A: 255})
	src := capture.NewFakeSource(img)
	src.Delay = time.Millisecond
	sampler := capture.NewSampler(src, capture.Config{})

	return NewSupervisor(disp, left, nil, sampler, nil), tr
}

func TestSupervisorSingleLamp(t *testing.T) {
	sup, tr := newSingleSupervisorRig(t)

	result := sup.ConnectBoth(context.Background())
	if len(result) != 1 || result[SideLeft] != nil {
		t.Fatalf("connect result = %v, want left only", result)
	}
	if states := sup.States(); len(states) != 1 || states[SideLeft] != lamp.StateConnected {
		t.Errorf("states = %v, want left connected only", states)
	}

	if err := sup.SetColor(context.Background(), SideRight, color.RGB{R: 255}); !errors.Is(err, ErrSideNotConfigured) {
		t.Errorf("set right: %v, want ErrSideNotConfigured", err)
	}

	// Unlimited mode is legal with a single lamp, and the full-frame
	// zone feeds the one channel.
	if err := sup.StartAmbient(context.Background(), Params{Unlimited: true, Saturation: 1.0}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return len(tr.Frames()) > 0 }) {
		sup.StopAmbient()
		t.Fatal("single lamp received no frames")
	}
	sup.StopAmbient()

	want := protocol.Encode(color.RGB{R: 255}).Bytes()
	if got := tr.Frames()[0]; !bytes.Equal(got, want) {
		t.Errorf("frame = %x, want %x", got, want)
	}
}

func TestSupervisorStartAmbientValidation(t *testing.T) {
	rig := newSupervisorRig(t)

	// Unlimited mode cannot drive the dual setup.
	err := rig.sup.StartAmbient(context.Background(), Params{Unlimited: true, Saturation: 1.0})
	if err == nil {
		t.Fatal("expected validation error for unlimited dual session")
	}
	if rig.sup.Running() {
		t.Error("running after failed start")
	}
}
