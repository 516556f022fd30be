package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchedStrategy gives the fake strategy a real directory to watch.
type watchedStrategy struct {
	*fakeStrategy
	dir string
}

func (s *watchedStrategy) Dir() string { return s.dir }

// shortenDebounce shrinks the watcher debounce for the duration of a test.
func shortenDebounce(t *testing.T, d time.Duration) {
	t.Helper()
	old := debounce
	debounce = d
	t.Cleanup(func() { debounce = old })
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestWatch_RequiresWatchableDirectory(t *testing.T) {
	m, _ := newTestManager(t, newFakeStrategy(), newFakeClient())
	assert.Error(t, m.Watch(context.Background()), "strategy without a directory")

	strategy := &watchedStrategy{fakeStrategy: newFakeStrategy()}
	notifier := &recordingNotifier{}
	m2, err := New(Config{
		StudyID:      "study-1",
		BaseFilename: "data.csv",
		Strategy:     strategy,
		Client:       newFakeClient(),
		Notifier:     notifier,
	})
	require.NoError(t, err)
	assert.Error(t, m2.Watch(context.Background()), "strategy with an empty directory")
}

func TestWatch_DebouncedSingleRehydratePerBurst(t *testing.T) {
	shortenDebounce(t, 150*time.Millisecond)

	dir := t.TempDir()
	inner := newFakeStrategy()
	inner.hasHandle = true
	inner.granted = true
	strategy := &watchedStrategy{fakeStrategy: inner, dir: dir}
	client := newFakeClient()

	m, err := New(Config{
		StudyID:      "study-1",
		BaseFilename: "data.csv",
		Strategy:     strategy,
		Client:       client,
		Notifier:     &recordingNotifier{},
	})
	require.NoError(t, err)
	require.NoError(t, m.Init(context.Background()))
	require.Equal(t, StateOnline, m.State())
	baseline := client.uploadCount()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher time to register the directory
	time.Sleep(200 * time.Millisecond)

	// An untracked file must not trigger hydration
	writeFile(t, dir, "notes.txt")
	time.Sleep(3 * debounce)
	assert.Equal(t, baseline, client.uploadCount(), "untracked write must be ignored")

	// A burst of tracked writes settles into exactly one hydration
	writeFile(t, dir, "data.csv")
	time.Sleep(30 * time.Millisecond)
	writeFile(t, dir, "simulated_data.csv")

	require.Eventually(t, func() bool {
		return client.uploadCount() == baseline+1
	}, 2*time.Second, 20*time.Millisecond, "burst should hydrate once after the debounce")

	time.Sleep(3 * debounce)
	assert.Equal(t, baseline+1, client.uploadCount(), "one burst, one hydration")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestWatch_SkipsHydrationWhenNotOnline(t *testing.T) {
	shortenDebounce(t, 150*time.Millisecond)

	dir := t.TempDir()
	inner := newFakeStrategy()
	inner.hasHandle = true // handle but no grant: permission_needed
	strategy := &watchedStrategy{fakeStrategy: inner, dir: dir}
	client := newFakeClient()

	m, err := New(Config{
		StudyID:      "study-1",
		BaseFilename: "data.csv",
		Strategy:     strategy,
		Client:       client,
		Notifier:     &recordingNotifier{},
	})
	require.NoError(t, err)
	require.NoError(t, m.Init(context.Background()))
	require.Equal(t, StatePermissionNeeded, m.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	time.Sleep(200 * time.Millisecond)

	writeFile(t, dir, "data.csv")
	time.Sleep(3 * debounce)
	assert.Zero(t, client.uploadCount(), "no hydration while permission is pending")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}
