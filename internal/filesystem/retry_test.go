package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("Expected InitialBackoff=50ms, got %v", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("Expected MaxBackoff=500ms, got %v", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"ESTALE errno", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"generic error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.expected {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type countingObserver struct {
	attempts, successes, failures, stale, durations int
}

func (c *countingObserver) ObserveRetryAttempt(string)           { c.attempts++ }
func (c *countingObserver) ObserveRetrySuccess(string)           { c.successes++ }
func (c *countingObserver) ObserveRetryFailure(string)           { c.failures++ }
func (c *countingObserver) ObserveRetryDuration(string, float64) { c.durations++ }
func (c *countingObserver) ObserveStaleError(string)             { c.stale++ }

// stubFS swaps the package hooks for the duration of a test.
func stubFS(t *testing.T, stat func(string) (os.FileInfo, error), remove func(string) error) *countingObserver {
	t.Helper()
	origStat, origRemove, origSleep, origObs := statFunc, removeFunc, sleepFunc, defaultObserver
	t.Cleanup(func() {
		statFunc, removeFunc, sleepFunc, defaultObserver = origStat, origRemove, origSleep, origObs
	})

	if stat != nil {
		statFunc = stat
	}
	if remove != nil {
		removeFunc = remove
	}
	sleepFunc = func(time.Duration) {}
	obs := &countingObserver{}
	SetObserver(obs)
	return obs
}

func TestStatWithRetry_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 1 {
		t.Errorf("Size() = %d, want 1", info.Size())
	}
}

func TestStatWithRetry_NotExistIsNotRetried(t *testing.T) {
	calls := 0
	obs := stubFS(t, func(p string) (os.FileInfo, error) {
		calls++
		return nil, &os.PathError{Op: "stat", Path: p, Err: syscall.ENOENT}
	}, nil)

	_, err := StatWithRetry("/missing", DefaultRetryConfig())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("stat called %d times, want 1", calls)
	}
	if obs.attempts != 0 || obs.stale != 0 {
		t.Errorf("unexpected retry metrics: %+v", obs)
	}
}

func TestStatWithRetry_RecoversFromStale(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	obs := stubFS(t, func(p string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &os.PathError{Op: "stat", Path: p, Err: syscall.ESTALE}
		}
		return os.Stat(target)
	}, nil)

	if _, err := StatWithRetry("/nfs/file.txt", DefaultRetryConfig()); err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("stat called %d times, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 || obs.failures != 0 {
		t.Errorf("metrics = %+v", obs)
	}
	if obs.durations != 1 {
		t.Errorf("duration observed %d times, want 1", obs.durations)
	}
}

func TestStatWithRetry_GivesUp(t *testing.T) {
	calls := 0
	obs := stubFS(t, func(p string) (os.FileInfo, error) {
		calls++
		return nil, syscall.ESTALE
	}, nil)

	config := DefaultRetryConfig()
	if _, err := StatWithRetry("/nfs/file.txt", config); !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("expected ESTALE, got %v", err)
	}
	if calls != config.MaxRetries+1 {
		t.Errorf("stat called %d times, want %d", calls, config.MaxRetries+1)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
}

func TestRetryBackoffIsCapped(t *testing.T) {
	var sleeps []time.Duration
	stubFS(t, func(string) (os.FileInfo, error) { return nil, syscall.ESTALE }, nil)
	sleepFunc = func(d time.Duration) { sleeps = append(sleeps, d) }

	config := RetryConfig{MaxRetries: 4, InitialBackoff: 100 * time.Millisecond, MaxBackoff: 250 * time.Millisecond}
	_, _ = StatWithRetry("/nfs/file", config)

	expected := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond, 250 * time.Millisecond}
	if len(sleeps) != len(expected) {
		t.Fatalf("slept %d times, want %d", len(sleeps), len(expected))
	}
	for i := range expected {
		if sleeps[i] != expected[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, sleeps[i], expected[i])
		}
	}
}

func TestRemoveWithRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveWithRetry(path, DefaultRetryConfig()); err != nil {
		t.Fatalf("RemoveWithRetry() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}

	// Already removed: not an error.
	if err := RemoveWithRetry(path, DefaultRetryConfig()); err != nil {
		t.Errorf("RemoveWithRetry() on missing file = %v, want nil", err)
	}
}

func TestRemoveWithRetry_Stale(t *testing.T) {
	calls := 0
	stubFS(t, nil, func(string) error {
		calls++
		if calls == 1 {
			return syscall.ESTALE
		}
		return nil
	})

	if err := RemoveWithRetry("/nfs/sheet.jpg", DefaultRetryConfig()); err != nil {
		t.Fatalf("RemoveWithRetry() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("remove called %d times, want 2", calls)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ok, err := Exists(present)
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v", ok, err)
	}

	ok, err = Exists(filepath.Join(dir, "absent"))
	if err != nil || ok {
		t.Errorf("Exists(absent) = %v, %v", ok, err)
	}
}

func TestExistsPropagatesOtherErrors(t *testing.T) {
	stubFS(t, func(string) (os.FileInfo, error) { return nil, syscall.EACCES }, nil)

	ok, err := Exists("/locked")
	if err == nil || ok {
		t.Errorf("Exists() = %v, %v; want error", ok, err)
	}
}
