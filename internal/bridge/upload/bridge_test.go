package upload

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftpbridge/internal/bridge/paperless"
	"ftpbridge/pkg/errors"
)

type pollResult struct {
	state paperless.JobState
	err   error
}

// fakeClient scripts the ingestion client: one canned submit result and a
// sequence of poll results (the last one repeats once exhausted).
type fakeClient struct {
	taskID    string
	submitErr error
	results   []pollResult

	submittedPath string
	submittedSize int64
	pollCalls     int
}

func (f *fakeClient) Submit(_ context.Context, path string) (string, error) {
	f.submittedPath = path
	if info, err := os.Stat(path); err == nil {
		f.submittedSize = info.Size()
	}
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.taskID, nil
}

func (f *fakeClient) PollStatus(_ context.Context, _ string) (paperless.JobState, error) {
	i := f.pollCalls
	f.pollCalls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.state, r.err
}

type fakeClock struct {
	t time.Time
}

// testBridge builds a bridge whose clock only moves when the poll loop
// sleeps, so deadline behavior is deterministic.
func testBridge(t *testing.T, client *fakeClient) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()

	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	b := NewBridge(NewStore(dir), client)
	b.now = func() time.Time { return clk.t }
	b.sleep = func(_ context.Context, d time.Duration) error {
		clk.t = clk.t.Add(d)
		return nil
	}

	return b, dir
}

func requireNoStagedFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged files leaked")
}

func TestUpload_SucceedsAfterPending(t *testing.T) {
	client := &fakeClient{
		taskID: "task-1",
		results: []pollResult{
			{state: paperless.StatePending},
			{state: paperless.StatePending},
			{state: paperless.StateSucceeded},
		},
	}
	b, dir := testBridge(t, client)

	n, err := b.Upload(context.Background(), "scanner", "/inbox/scan.pdf", strings.NewReader("payload"), 0)

	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), n)
	assert.Equal(t, 3, client.pollCalls)
	requireNoStagedFiles(t, dir)
}

func TestUpload_PendingPastDeadlineTimesOut(t *testing.T) {
	client := &fakeClient{
		taskID:  "task-1",
		results: []pollResult{{state: paperless.StatePending}},
	}
	b, dir := testBridge(t, client)

	_, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

	assert.ErrorIs(t, err, errors.ErrUploadTimeout)
	// 1s interval against a 10s deadline: the overrun is noticed on poll 11
	assert.Equal(t, 11, client.pollCalls)
	requireNoStagedFiles(t, dir)
}

func TestUpload_RemoteFailure(t *testing.T) {
	for _, state := range []paperless.JobState{paperless.StateFailed, paperless.StateCancelled} {
		client := &fakeClient{
			taskID:  "task-1",
			results: []pollResult{{state: state}},
		}
		b, dir := testBridge(t, client)

		_, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

		assert.ErrorIs(t, err, errors.ErrRemoteJobFailed, "state %s", state)
		requireNoStagedFiles(t, dir)
	}
}

func TestUpload_TransientLookupErrorIsAbsorbed(t *testing.T) {
	client := &fakeClient{
		taskID: "task-1",
		results: []pollResult{
			{err: errors.ErrRemoteUnavailable},
			{state: paperless.StateSucceeded},
		},
	}
	b, dir := testBridge(t, client)

	n, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	requireNoStagedFiles(t, dir)
}

func TestUpload_LookupErrorsPastDeadline(t *testing.T) {
	client := &fakeClient{
		taskID:  "task-1",
		results: []pollResult{{err: errors.ErrRemoteUnavailable}},
	}
	b, dir := testBridge(t, client)

	_, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

	assert.ErrorIs(t, err, errors.ErrUploadTimeout)
	requireNoStagedFiles(t, dir)
}

func TestUpload_SubmitFailure(t *testing.T) {
	client := &fakeClient{submitErr: errors.ErrRemoteUnavailable}
	b, dir := testBridge(t, client)

	_, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

	assert.ErrorIs(t, err, errors.ErrRemoteUnavailable)
	assert.Zero(t, client.pollCalls, "submit failures must not be polled")
	requireNoStagedFiles(t, dir)
}

func TestUpload_StagingFailure(t *testing.T) {
	client := &fakeClient{taskID: "task-1"}
	b, _ := testBridge(t, client)
	b.store = NewStore(t.TempDir() + "/missing")

	_, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("x"), 0)

	assert.ErrorIs(t, err, errors.ErrLocalIO)
	assert.Empty(t, client.submittedPath, "nothing may be submitted after a staging failure")
}

func TestUpload_ResumeOffsetReachesSubmission(t *testing.T) {
	client := &fakeClient{
		taskID:  "task-1",
		results: []pollResult{{state: paperless.StateSucceeded}},
	}
	b, dir := testBridge(t, client)

	n, err := b.Upload(context.Background(), "scanner", "scan.pdf", strings.NewReader("tail"), 100)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	// the submitted file carries the pre-sized prefix plus the new bytes
	assert.Equal(t, int64(104), client.submittedSize)
	requireNoStagedFiles(t, dir)
}

func TestUpload_ShutdownAbandonsPolling(t *testing.T) {
	client := &fakeClient{
		taskID:  "task-1",
		results: []pollResult{{state: paperless.StatePending}},
	}
	b, dir := testBridge(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	b.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := b.Upload(ctx, "scanner", "scan.pdf", strings.NewReader("x"), 0)

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	requireNoStagedFiles(t, dir)
}
