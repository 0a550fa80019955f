package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/ports"
)

// Options configures an Ingestor. Store may be nil when the database could
// not be opened; the backup log is still written in that case.
type Options struct {
	Store   ports.Store
	Backup  ports.BackupLog
	Metrics ports.MetricsExporter
	Logger  *slog.Logger

	// Hint is the out-of-band event type, usually CLAUDE_HOOK_TYPE.
	Hint string
	// ProjectPath is the working directory of the invocation. When empty
	// the payload's cwd is used.
	ProjectPath string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes what one ingestion did.
type Result struct {
	Kind           domain.HookKind
	SessionID      string
	SessionCreated bool
	// ClosedSession is set when a termination event closed a known session.
	ClosedSession *domain.Session
}

// Ingestor turns one hook payload into durable records.
type Ingestor struct {
	store       ports.Store
	backup      ports.BackupLog
	metrics     ports.MetricsExporter
	logger      *slog.Logger
	correlator  Correlator
	hint        string
	projectPath string
	now         func() time.Time
}

func NewIngestor(opts Options) *Ingestor {
	i := &Ingestor{
		store:       opts.Store,
		backup:      opts.Backup,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		hint:        opts.Hint,
		projectPath: opts.ProjectPath,
		now:         opts.Now,
	}
	if i.logger == nil {
		i.logger = slog.New(slog.DiscardHandler)
	}
	if i.now == nil {
		i.now = time.Now
	}
	return i
}

// Ingest records a single hook invocation. Malformed input writes nothing.
// Otherwise the backup line is appended even when the store fails, and the
// returned error wraps ErrStorageUnavailable or ErrMissingSessionID.
func (i *Ingestor) Ingest(ctx context.Context, input []byte) (Result, error) {
	now := i.now()

	payload, err := domain.ParseHookPayload(input)
	if err != nil {
		return Result{Kind: domain.Classify(i.hint, nil)}, err
	}

	res := Result{
		Kind:      domain.Classify(i.hint, payload),
		SessionID: payload.SessionID,
	}
	project := i.projectPath
	if project == "" {
		project = payload.Cwd
	}

	i.logger.Debug("ingesting hook", "kind", res.Kind, "session_id", res.SessionID, "tool", payload.ToolName)

	storeErr := i.record(ctx, &res, payload, project, now)

	if i.backup != nil {
		record := domain.BackupRecord{
			Timestamp: now,
			HookType:  res.Kind,
			Project:   project,
			Data:      payload.Raw,
		}
		if err := i.backup.Append(ctx, record); err != nil {
			i.logger.Warn("failed to append backup log", "error", err)
		}
	}

	if i.metrics != nil {
		i.metrics.RecordEvent(ctx, res.Kind)
		if storeErr == nil && res.Kind.IsToolUse() {
			i.metrics.RecordToolUsage(ctx, payload.ToolName, domain.Categorize(payload.ToolName))
		}
		if res.ClosedSession != nil {
			i.metrics.RecordSessionClosed(ctx, res.ClosedSession)
		}
	}

	return res, storeErr
}

func (i *Ingestor) record(ctx context.Context, res *Result, payload *domain.HookPayload, project string, now time.Time) error {
	if i.store == nil {
		return domain.ErrStorageUnavailable
	}
	if err := i.store.InitSchema(ctx); err != nil {
		return storageErr(err)
	}

	event := &domain.Event{
		SessionID:   payload.SessionID,
		Timestamp:   now,
		Kind:        res.Kind,
		Data:        payload.Raw,
		ProjectPath: project,
	}

	if payload.SessionID == "" {
		err := i.store.WithinTx(ctx, func(repos *ports.Repositories) error {
			return repos.Events.Create(ctx, event)
		})
		if err != nil {
			return storageErr(err)
		}
		return domain.ErrMissingSessionID
	}

	var (
		created bool
		closed  *domain.Session
	)
	err := i.store.WithinTx(ctx, func(repos *ports.Repositories) error {
		switch {
		case res.Kind.IsToolUse():
			session := domain.NewSession(payload.SessionID, project, payload.TranscriptPath, now)
			var err error
			if created, err = i.correlator.EnsureOpen(ctx, repos.Sessions, session); err != nil {
				return err
			}
			if err := i.recordToolUse(ctx, repos, payload, project, now); err != nil {
				return err
			}
		case res.Kind.IsTermination():
			var err error
			if closed, err = i.correlator.Close(ctx, repos.Sessions, payload.SessionID, now); err != nil {
				return err
			}
		}
		return repos.Events.Create(ctx, event)
	})
	if err != nil {
		return storageErr(err)
	}

	res.SessionCreated = created
	res.ClosedSession = closed
	if closed == nil && res.Kind.IsTermination() {
		i.logger.Debug("termination for unknown session", "session_id", payload.SessionID)
	}
	return nil
}

func (i *Ingestor) recordToolUse(ctx context.Context, repos *ports.Repositories, payload *domain.HookPayload, project string, now time.Time) error {
	usage := &domain.ToolUsage{
		SessionID:   payload.SessionID,
		Timestamp:   now,
		ToolName:    payload.ToolName,
		Category:    domain.Categorize(payload.ToolName),
		InputSize:   payload.InputSize(),
		OutputSize:  payload.OutputSize(),
		ProjectPath: project,
	}
	if err := repos.ToolUsage.Create(ctx, usage); err != nil {
		return fmt.Errorf("record tool usage: %w", err)
	}

	if payload.ToolName != domain.ShellTool {
		return nil
	}
	command, description := payload.ShellCommand()
	cmd := &domain.Command{
		SessionID:   payload.SessionID,
		Timestamp:   now,
		Command:     command,
		Description: description,
		ProjectPath: project,
	}
	if err := repos.Commands.Create(ctx, cmd); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	return nil
}

func storageErr(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
