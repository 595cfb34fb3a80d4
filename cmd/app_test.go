package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/etnz/findeck"
	"go.uber.org/zap"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1500.50", "1500.5", false},
		{"-3", "-3", false},
		{"0.00000001", "0.00000001", false},
		{"1,5", "", true},
		{"ten", "", true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, "x"), "findeck list"},
		{fmt.Errorf("%w: name is required", findeck.ErrInvalidAccount), "name is required."},
		{errors.New("disk full"), "Error: disk full"},
	}
	for _, tt := range tests {
		if got := describe(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("describe(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, name := range []string{"list", "add", "income", "serve", "topic"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("no completion for %q", name)
		}
	}
	if _, ok := c.Sub["add"].Flags["type"]; !ok {
		t.Error("no completion for add -type")
	}
}

func TestWaitForPrices(t *testing.T) {
	// fetch over in time
	done := make(chan struct{})
	close(done)
	waitForPrices(done, time.Hour, zap.NewNop())()

	// late fetch: finish waits for it
	done = make(chan struct{})
	finish := waitForPrices(done, time.Millisecond, zap.NewNop())
	finished := make(chan struct{})
	go func() {
		finish()
		close(finished)
	}()
	select {
	case <-finished:
		t.Fatal("finish returned before the fetch was over")
	case <-time.After(20 * time.Millisecond):
	}
	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("finish did not return once the fetch was over")
	}
}
