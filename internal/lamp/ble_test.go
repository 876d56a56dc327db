package lamp

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDialLinkSuccess(t *testing.T) {
	link, err := dialLink(context.Background(), func() (bleLink, error) {
		return bleLink{}, nil
	}, func(bleLink) {
		t.Error("drop called for a winning attempt")
	})
	if err != nil {
		t.Fatalf("dialLink: %v", err)
	}
	_ = link
}

func TestDialLinkError(t *testing.T) {
	_, err := dialLink(context.Background(), func() (bleLink, error) {
		return bleLink{}, errLink
	}, func(bleLink) {
		t.Error("drop called for a failed attempt")
	})
	if !errors.Is(err, errLink) {
		t.Errorf("err = %v, want errLink", err)
	}
}

func TestDialLinkDropsLateSuccess(t *testing.T) {
	release := make(chan struct{})
	dropped := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := dialLink(ctx, func() (bleLink, error) {
		<-release // outlives the caller's deadline
		return bleLink{}, nil
	}, func(bleLink) {
		close(dropped)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	// The attempt completes after the caller gave up; its link must be
	// torn down, not kept.
	close(release)
	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("late successful link was not dropped")
	}
}

func TestDialLinkLateFailureNotDropped(t *testing.T) {
	release := make(chan struct{})
	dropCalls := make(chan struct{}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := dialLink(ctx, func() (bleLink, error) {
		<-release
		return bleLink{}, errLink
	}, func(bleLink) {
		dropCalls <- struct{}{}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	close(release)
	select {
	case <-dropCalls:
		t.Fatal("drop called for a failed late attempt")
	case <-time.After(100 * time.Millisecond):
	}
}
