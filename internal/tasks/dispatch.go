package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/danmuck/redockctl/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownOperation = errors.New("tasks: unknown operation")
	ErrUsage            = errors.New("tasks: expected at most one operation")
)

// Dispatcher resolves operation tokens against a registry.
type Dispatcher struct {
	program  string
	registry *Registry
}

// NewDispatcher registers ops in the given order; that order is the usage order.
func NewDispatcher(program string, ops ...Operation) (*Dispatcher, error) {
	reg := NewRegistry()
	for _, op := range ops {
		if err := reg.Register(op); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(program) == "" {
		program = "redockctl"
	}
	return &Dispatcher{program: program, registry: reg}, nil
}

// Operations returns the catalog, hidden entries included.
func (d *Dispatcher) Operations() []OperationSpec {
	return d.registry.ListSpecs()
}

// Resolve maps a token to its operation without running anything.
func (d *Dispatcher) Resolve(name string) (Operation, error) {
	op, ok := d.registry.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

// Dispatch handles zero or one operation token. No token, or a blank one,
// writes usage to w and succeeds.
func (d *Dispatcher) Dispatch(ctx context.Context, w io.Writer, args []string) (Result, error) {
	if len(args) > 1 {
		return Result{FailedIndex: -1}, fmt.Errorf("%w: got %d", ErrUsage, len(args))
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Result{FailedIndex: -1}, d.Usage(w)
	}

	op, err := d.Resolve(args[0])
	if err != nil {
		log.Debug().Str("operation", args[0]).Msg("tasks.Dispatcher.Dispatch unknown operation")
		return Result{Operation: args[0], FailedIndex: -1}, err
	}
	return d.run(ctx, op)
}

func (d *Dispatcher) run(ctx context.Context, op Operation) (Result, error) {
	name := op.Spec().Name
	log.Info().Str("operation", name).Msg("tasks.Dispatcher.run start")
	res, err := op.Run(ctx)
	res.Operation = name
	code := ExitCode(err)
	observability.RecordOperation(name, code, time.Now())
	if err != nil {
		log.Debug().Err(err).Str("operation", name).Int("exit_code", code).Msg("tasks.Dispatcher.run failed")
		return res, err
	}
	log.Info().Str("operation", name).Dur("elapsed", res.Duration).Msg("tasks.Dispatcher.run complete")
	return res, nil
}

// Usage writes the documented operations, one per line.
func (d *Dispatcher) Usage(w io.Writer) error {
	return WriteUsage(w, d.program, d.registry.ListSpecs())
}

// WriteUsage renders the usage text for specs, skipping hidden entries.
func WriteUsage(w io.Writer, program string, specs []OperationSpec) error {
	if _, err := fmt.Fprintf(w, "Usage: %s [operation]\n\nOperations:\n", program); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, spec := range specs {
		if spec.Hidden {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", spec.Name, spec.Description)
	}
	return tw.Flush()
}

// Catalog lists the operation specs in usage order without building anything.
func Catalog() []OperationSpec {
	return []OperationSpec{
		(&TestRunner{}).Spec(),
		(&DocsBuilder{}).Spec(),
		(&Publisher{}).Spec(),
		(&Cleaner{}).Spec(),
		(&Provisioner{}).Spec(),
	}
}
