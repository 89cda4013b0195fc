package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/api"
	"github.com/poisonlab/poisonlab/attack"
	"github.com/poisonlab/poisonlab/log"
)

const experimentLogger = "experiment"

//nolint:gochecknoglobals
var now = time.Now

// Target is the lab an experiment runs against
type Target interface {
	DNSSECStatus(ctx context.Context) (api.DNSSECStatus, error)
	SetupDNSSEC(ctx context.Context) (api.OperationResult, error)
	UnsignZone(ctx context.Context) (api.OperationResult, error)
	EnableValidation(ctx context.Context) (api.OperationResult, error)
	DisableValidation(ctx context.Context) (api.OperationResult, error)
	RunRound(ctx context.Context) (api.RoundResult, error)
	FlushCache(ctx context.Context, domain string) error
	Query(ctx context.Context, domain string) (api.QueryResult, error)
}

// Trial is one attack round of an experiment
type Trial struct {
	Number          int
	Mode            Mode
	Outcome         attack.RoundOutcome
	BlockedByDNSSEC bool
	Duration        time.Duration
}

// Summary aggregates the trials of an experiment
type Summary struct {
	Trials      int
	Successes   int
	Blocked     int
	SuccessRate float64
}

// Runner runs attack experiments against a lab
type Runner struct {
	target Target
	pause  time.Duration
	logger *logrus.Entry
}

// NewRunner creates a runner which waits pause between two trials
func NewRunner(target Target, pause time.Duration) *Runner {
	return &Runner{
		target: target,
		pause:  pause,
		logger: log.PrefixedLog(experimentLogger),
	}
}

// EnsureMode brings the zone and the resolver into the state of mode
func (r *Runner) EnsureMode(ctx context.Context, mode Mode) error {
	status, err := r.target.DNSSECStatus(ctx)
	if err != nil {
		return fmt.Errorf("can't read dnssec status: %w", err)
	}

	switch mode {
	case ModeUnsigned:
		if status.ZoneSigned {
			r.logger.Info("zone is signed, disabling DNSSEC")

			if _, err := r.target.UnsignZone(ctx); err != nil {
				return fmt.Errorf("can't unsign zone: %w", err)
			}
		}

		if status.DNSSECEnabled {
			if _, err := r.target.DisableValidation(ctx); err != nil {
				return fmt.Errorf("can't disable validation: %w", err)
			}
		}
	case ModeDnssec:
		if !status.ZoneSigned {
			r.logger.Info("zone not signed, running DNSSEC setup")

			if _, err := r.target.SetupDNSSEC(ctx); err != nil {
				return fmt.Errorf("can't set up dnssec: %w", err)
			}
		}

		if !status.DNSSECEnabled {
			r.logger.Info("enabling DNSSEC validation on resolver")

			if _, err := r.target.EnableValidation(ctx); err != nil {
				return fmt.Errorf("can't enable validation: %w", err)
			}
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}

	r.logger.Infof("mode: %s", mode)

	return nil
}

// Run runs the given number of trials in mode
func (r *Runner) Run(ctx context.Context, mode Mode, trials int) ([]Trial, error) {
	if err := r.EnsureMode(ctx, mode); err != nil {
		return nil, err
	}

	result := make([]Trial, 0, trials)

	for i := 1; i <= trials; i++ {
		r.logger.Infof("trial %d/%d (%s)", i, trials, mode)

		start := now()

		round, err := r.target.RunRound(ctx)
		if err != nil {
			return result, fmt.Errorf("trial %d failed: %w", i, err)
		}

		outcome, err := attack.ParseRoundOutcome(round.Outcome)
		if err != nil {
			return result, fmt.Errorf("trial %d: %w", i, err)
		}

		result = append(result, Trial{
			Number:          i,
			Mode:            mode,
			Outcome:         outcome,
			BlockedByDNSSEC: round.BlockedByDNSSEC,
			Duration:        now().Sub(start),
		})

		if i < trials {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.pause):
			}
		}
	}

	return result, nil
}

// Summarize aggregates trials
func Summarize(trials []Trial) Summary {
	s := Summary{Trials: len(trials)}

	for _, t := range trials {
		switch {
		case t.BlockedByDNSSEC:
			s.Blocked++
		case t.Outcome == attack.RoundOutcomeSuccess:
			s.Successes++
		}
	}

	if s.Trials > 0 {
		const percent = 100

		s.SuccessRate = float64(s.Successes) / float64(s.Trials) * percent
	}

	return s
}

// WriteCSV writes trials with a header row
func WriteCSV(w io.Writer, trials []Trial) error {
	writer := csv.NewWriter(w)

	err := writer.Write([]string{"trial", "mode", "outcome", "blocked_by_dnssec", "duration_sec"})
	if err != nil {
		return fmt.Errorf("can't write header: %w", err)
	}

	for _, t := range trials {
		err := writer.Write([]string{
			strconv.Itoa(t.Number),
			t.Mode.String(),
			t.Outcome.String(),
			strconv.FormatBool(t.BlockedByDNSSEC),
			strconv.FormatFloat(t.Duration.Seconds(), 'f', 4, 64),
		})
		if err != nil {
			return fmt.Errorf("can't write trial %d: %w", t.Number, err)
		}
	}

	writer.Flush()

	return writer.Error()
}

func (s Summary) String() string {
	return fmt.Sprintf("trials = %d, successes = %d, blocked = %d, success rate = %.2f%%",
		s.Trials, s.Successes, s.Blocked, s.SuccessRate)
}
