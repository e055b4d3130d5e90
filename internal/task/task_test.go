package task

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGreeter_Run(t *testing.T) {
	var buf bytes.Buffer
	g := NewGreeter("", &buf)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := buf.String(); got != "Hello, World!\n" {
		t.Errorf("output = %q, want %q", got, "Hello, World!\n")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestGreeter_WriteError(t *testing.T) {
	g := NewGreeter("hi", failingWriter{})
	if err := g.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing writer")
	}
}

func TestComposer_Run(t *testing.T) {
	var buf bytes.Buffer
	c := NewComposer("Performance Test", &buf)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := buf.String(); got != "Performance Test\n" {
		t.Errorf("output = %q, want %q", got, "Performance Test\n")
	}
	if c.Name() != "compose" {
		t.Errorf("Name() = %q, want compose", c.Name())
	}
}

func TestSleeper(t *testing.T) {
	t.Run("waits for delay", func(t *testing.T) {
		s := &Sleeper{Delay: 5 * time.Millisecond}
		start := time.Now()
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
			t.Errorf("elapsed = %v, want >= 5ms", elapsed)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := &Sleeper{Delay: time.Hour}
		if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})
}

func TestChain(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	c := Chain{NewGreeter("a", &buf), Fail("explode", boom), NewGreeter("b", &buf)}

	err := c.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if buf.String() != "a\n" {
		t.Errorf("output = %q, want only the first greeting", buf.String())
	}
	if c.Name() != "greet+explode+greet" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestCommand(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	tests := []struct {
		name    string
		cmd     *Command
		wantErr error
		fails   bool
	}{
		{name: "exit zero", cmd: NewCommand(sh, "-c", "exit 0")},
		{name: "exit non-zero", cmd: NewCommand(sh, "-c", "echo nope >&2; exit 3"), fails: true},
		{
			name:    "timeout",
			cmd:     &Command{Path: sh, Args: []string{"-c", "sleep 5"}, Timeout: 50 * time.Millisecond},
			wantErr: ErrCommandTimeout,
			fails:   true,
		},
		{name: "missing binary", cmd: NewCommand("/nonexistent/hellobench-missing"), fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(context.Background())
			if (err != nil) != tt.fails {
				t.Fatalf("Run() error = %v, fails %v", err, tt.fails)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommand_TimeoutWithGrandchild(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	// The trailing true keeps sh from exec'ing sleep, so sleep outlives sh
	// and holds stderr open.
	cmd := &Command{Path: sh, Args: []string{"-c", "sleep 3; true"}, Timeout: 50 * time.Millisecond}

	start := time.Now()
	err = cmd.Run(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCommandTimeout) {
		t.Fatalf("Run() error = %v, want %v", err, ErrCommandTimeout)
	}
	if elapsed > 50*time.Millisecond+commandWaitDelay+time.Second {
		t.Errorf("Run() took %v after a 50ms timeout", elapsed)
	}
}

func TestLockedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := LockedWriter(&buf)
	if LockedWriter(w) != w {
		t.Error("LockedWriter should not wrap twice")
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := NewGreeter("hi", w)
			if err := g.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "hi\n"); got != 20 {
		t.Errorf("got %d greetings, want 20", got)
	}
}
