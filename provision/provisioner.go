// Package provision implements the ordered provisioning sequence for the
// crime-reports database: schema, enum type, table, bulk load, privilege
// lockdown, groups, users and catalog verification.
//
// Every step takes an explicit database connection and is idempotent, so
// the sequence can be re-run against a partially provisioned server. The
// provisioner halts at the first failure and reports which step failed.
package provision

import (
	"context"
	"fmt"
	"log/slog"
)

// StepFunc runs one provisioning step against the given connection,
// logging through the provisioner's logger.
type StepFunc func(ctx context.Context, conn Connection, logger *slog.Logger) error

// Step is a named provisioning step
type Step struct {
	Name string
	Run  StepFunc
}

// Provisioner executes an ordered list of provisioning steps
type Provisioner struct {
	conn   Connection
	steps  []Step
	logger *slog.Logger
}

// New creates a provisioner that will run the given steps in order
func New(conn Connection, steps []Step) *Provisioner {
	return &Provisioner{
		conn:   conn,
		steps:  steps,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the provisioner
func (p *Provisioner) WithLogger(l *slog.Logger) *Provisioner {
	tmp := *p
	tmp.logger = l
	return &tmp
}

// Run executes all steps in order, stopping at the first failure. The
// returned error names the failing step.
func (p *Provisioner) Run(ctx context.Context) error {
	p.logger.Info("Provisioning", "totalSteps", len(p.steps))

	for i, step := range p.steps {
		p.logger.Info("Running step", "step", step.Name, "position", fmt.Sprintf("%d/%d", i+1, len(p.steps)))

		if err := step.Run(ctx, p.conn, p.logger); err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name, err)
		}

		p.logger.Info("Step complete", "step", step.Name)
	}

	p.logger.Info("Provisioning complete")
	return nil
}
