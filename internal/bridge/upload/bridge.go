// Package upload contains the bridge between a single inbound file transfer
// and one asynchronous ingestion job: stage the stream durably, submit the
// staged file, poll the job under a bounded deadline and map the outcome
// back to the synchronous result the transfer protocol requires.
package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"ftpbridge/internal/bridge/paperless"
	"ftpbridge/pkg/errors"
	"ftpbridge/pkg/logger"
)

// State is the upload bridge's position in its lifecycle. SUCCEEDED,
// REMOTE_FAILED, TIMED_OUT and LOCAL_FAILED are terminal.
type State string

const (
	StateStaging      State = "STAGING"
	StateSubmitted    State = "SUBMITTED"
	StatePolling      State = "POLLING"
	StateSucceeded    State = "SUCCEEDED"
	StateRemoteFailed State = "REMOTE_FAILED"
	StateTimedOut     State = "TIMED_OUT"
	StateLocalFailed  State = "LOCAL_FAILED"
)

// Polling policy. Fixed, not configurable; the deadline is the only bound
// on the remote service's job latency.
const (
	PollInterval = 1 * time.Second
	PollDeadline = 10 * time.Second
)

// SubmitPoller is the slice of the ingestion client the bridge needs
type SubmitPoller interface {
	Submit(ctx context.Context, path string) (string, error)
	PollStatus(ctx context.Context, taskID string) (paperless.JobState, error)
}

// Bridge orchestrates staging, submission and bounded polling for one
// upload at a time. It is stateless across uploads and safe for concurrent
// use; each Upload call runs as an independent sequential flow.
type Bridge struct {
	store    *Store
	client   SubmitPoller
	interval time.Duration
	deadline time.Duration
	logger   *logger.Logger

	// injectable clock and sleep so deadline behavior is testable without
	// wall-clock delays
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBridge(store *Store, client SubmitPoller) *Bridge {
	return &Bridge{
		store:    store,
		client:   client,
		interval: PollInterval,
		deadline: PollDeadline,
		logger:   logger.WithField("component", "upload-bridge"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Upload runs the full bridge flow for one inbound transfer and returns the
// number of bytes drained from the stream. A nil error means the remote job
// reached SUCCEEDED; every other terminal state surfaces as an error carrying
// its distinguishing cause for the logs.
//
// The staged local file is released on every exit path. Cancelling ctx
// (process shutdown) abandons local tracking of an already-submitted job;
// no remote cancellation is issued.
func (b *Bridge) Upload(ctx context.Context, user, name string, stream io.Reader, offset int64) (int64, error) {
	log := b.logger.WithFields("user", user, "path", name)
	state := StateStaging
	log.Info("upload started", "state", state, "offset", offset)

	staged, written, err := b.store.Stage(name, stream, offset)
	if err != nil {
		log.Error("staging failed", "state", StateLocalFailed, "error", err)
		return 0, err
	}
	defer staged.Remove()

	state = b.transition(log, state, StateSubmitted)
	taskID, err := b.client.Submit(ctx, staged.Path())
	if err != nil {
		// From the peer's point of view no remote processing was ever
		// guaranteed to start, so this ranks with local failures.
		log.Error("submission failed", "state", StateLocalFailed, "error", err)
		return 0, err
	}

	state = b.transition(log, state, StatePolling)
	log = log.WithField("taskId", taskID)

	// The deadline budget starts here: staging and submission time are
	// excluded from it.
	start := b.now()
	for {
		if err := b.sleep(ctx, b.interval); err != nil {
			log.Warn("upload abandoned", "state", StateLocalFailed, "error", err)
			return 0, fmt.Errorf("%w: %w", errors.ErrLocalIO, err)
		}

		jobState, err := b.client.PollStatus(ctx, taskID)
		if err != nil {
			// Transient lookup errors are absorbed, the job may still be
			// progressing. Only a deadline overrun gives up.
			log.Warn("job status lookup failed", "error", err)
			if b.now().Sub(start) > b.deadline {
				log.Error("deadline exceeded during status lookup", "state", StateLocalFailed, "error", err)
				return 0, fmt.Errorf("%w: status lookup: %w", errors.ErrUploadTimeout, err)
			}
			continue
		}

		log.Debug("job status", "status", jobState)

		switch jobState {
		case paperless.StateSucceeded:
			b.transition(log, state, StateSucceeded)
			log.Info("upload complete", "bytes", written)
			return written, nil
		case paperless.StateFailed, paperless.StateCancelled:
			b.transition(log, state, StateRemoteFailed)
			return 0, fmt.Errorf("%w: job reported %s", errors.ErrRemoteJobFailed, jobState)
		}

		if b.now().Sub(start) > b.deadline {
			b.transition(log, state, StateTimedOut)
			return 0, fmt.Errorf("%w: job still %s after %s", errors.ErrUploadTimeout, jobState, b.deadline)
		}
	}
}

func (b *Bridge) transition(log *logger.Logger, from, to State) State {
	log.Debug("state transition", "from", from, "to", to)
	return to
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
