// Package blocker runs the block decision workflow: check the ledger, ask the
// reputation service, apply the policy and record the block.
package blocker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"ipdnb/internal/domain"
	"ipdnb/internal/ipfilter"
)

var ErrFileNotFound = errors.New("file not found")

type Store interface {
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Insert(ctx context.Context, record *domain.BlockedIP) error
}

type Lookuper interface {
	Lookup(ctx context.Context, ip string) (*domain.LookupResult, error)
}

type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeBlocked
	OutcomeAllowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// FileReport counts what happened to the candidates of one file.
type FileReport struct {
	Path       string
	Candidates int
	Skipped    int
	Blocked    int
	Allowed    int
}

type Engine struct {
	store    Store
	lookuper Lookuper
	policy   Policy
	notifier Notifier
	dryRun   bool
}

type EngineOption func(*Engine)

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithDryRun makes the engine decide and notify without writing to the store.
func WithDryRun(enabled bool) EngineOption {
	return func(e *Engine) {
		e.dryRun = enabled
	}
}

func NewEngine(store Store, lookuper Lookuper, policy Policy, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		lookuper: lookuper,
		policy:   policy,
		notifier: discardNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) IsBlocked(ctx context.Context, ip string) (bool, error) {
	return e.store.IsBlocked(ctx, ip)
}

// EvaluateAndBlock applies the policy to result and, on a match, inserts a
// record and notifies. The store is not consulted again first, so two calls
// for the same IP insert two rows.
func (e *Engine) EvaluateAndBlock(ctx context.Context, ip string, result *domain.LookupResult) (bool, error) {
	if result == nil {
		return false, fmt.Errorf("evaluate %s: nil lookup result", ip)
	}
	if !e.policy.ShouldBlock(result) {
		return false, nil
	}

	record := result.NewBlockedIP(ip)
	if !e.dryRun {
		if err := e.store.Insert(ctx, &record); err != nil {
			return false, err
		}
	}

	e.notifier.Blocked(record)
	log.Debug("IP blocked", "ip", ip, "country", record.Country, "is_tor", record.IsTor, "dry_run", e.dryRun)
	return true, nil
}

// ProcessIP runs one candidate through the ledger check, the lookup and the policy.
func (e *Engine) ProcessIP(ctx context.Context, ip string) (Outcome, error) {
	blocked, err := e.IsBlocked(ctx, ip)
	if err != nil {
		return OutcomeSkipped, err
	}
	if blocked {
		log.Debug("IP already blocked", "ip", ip)
		return OutcomeSkipped, nil
	}

	result, err := e.lookuper.Lookup(ctx, ip)
	if err != nil {
		return OutcomeSkipped, err
	}

	blocked, err = e.EvaluateAndBlock(ctx, ip, result)
	if err != nil {
		return OutcomeSkipped, err
	}
	if blocked {
		return OutcomeBlocked, nil
	}
	log.Debug("IP allowed", "ip", ip, "country", result.Country)
	return OutcomeAllowed, nil
}

// ProcessFile reads path and processes its public candidates in order. A
// missing, irregular or unreadable path returns an error wrapping
// ErrFileNotFound before any lookup happens.
func (e *Engine) ProcessFile(ctx context.Context, path string) (FileReport, error) {
	report := FileReport{Path: path}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return report, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}

	candidates := ipfilter.PublicCandidates(string(content))
	report.Candidates = len(candidates)

	for _, ip := range candidates {
		outcome, err := e.ProcessIP(ctx, ip)
		if err != nil {
			return report, fmt.Errorf("process %s from %s: %w", ip, path, err)
		}
		switch outcome {
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeBlocked:
			report.Blocked++
		case OutcomeAllowed:
			report.Allowed++
		}
	}
	return report, nil
}

// ProcessFiles handles each path in turn. File-not-found conditions are
// reported through the notifier and do not stop the run; any other error does.
func (e *Engine) ProcessFiles(ctx context.Context, paths []string) ([]FileReport, error) {
	reports := make([]FileReport, 0, len(paths))
	for _, path := range paths {
		report, err := e.ProcessFile(ctx, path)
		if err != nil {
			if errors.Is(err, ErrFileNotFound) {
				e.notifier.FileNotFound(path)
				log.Debug("Skipping unreadable file", "path", path, "error", err)
				continue
			}
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
