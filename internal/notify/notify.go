// Package notify delivers passive check results to a monitoring receiver.
// The sink is a narrow port with interchangeable implementations: the
// production NSCA spawner, a dump writer for --dump-services, a discard
// sink for --no-metrics, and an in-memory recorder for tests.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/opsgrid/cbcheck/internal/models"
)

// Notifier delivers one check result.
type Notifier interface {
	Send(ctx context.Context, result models.CheckResult) error
}

// Dump prints the computed service description instead of sending, for
// operators wiring up the receiver side.
type Dump struct {
	W io.Writer
}

func (d Dump) Send(_ context.Context, result models.CheckResult) error {
	_, err := fmt.Fprintln(d.W, result.Service)
	return err
}

// Discard computes everything but sends nothing.
type Discard struct{}

func (Discard) Send(context.Context, models.CheckResult) error { return nil }

// Recorder captures results in memory.
type Recorder struct {
	Results []models.CheckResult
}

func (r *Recorder) Send(_ context.Context, result models.CheckResult) error {
	r.Results = append(r.Results, result)
	return nil
}
