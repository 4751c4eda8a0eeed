package follow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPollInterval = 20 * time.Millisecond

func backendKinds() []BackendKind {
	return []BackendKind{BackendPoll, BackendNotify}
}

func startEngine(t *testing.T, path string, kind BackendKind) *Engine {
	t.Helper()

	engine, err := NewEngine(WatchConfig{
		Path:         path,
		Backend:      kind,
		PollInterval: testPollInterval,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Start())

	t.Cleanup(func() { _ = engine.Stop() })

	return engine
}

func collectLines(t *testing.T, engine *Engine, n int, timeout time.Duration) []string {
	t.Helper()

	var lines []string

	deadline := time.After(timeout)

	for len(lines) < n {
		select {
		case line, ok := <-engine.Lines():
			if !ok {
				t.Fatalf("line channel closed early (engine error: %v), got %v", engine.Err(), lines)
			}

			lines = append(lines, line.Text)
		case <-deadline:
			t.Fatalf("timed out waiting for %d lines, got %v", n, lines)
		}
	}

	return lines
}

func requireNoLine(t *testing.T, engine *Engine, window time.Duration) {
	t.Helper()

	select {
	case line, ok := <-engine.Lines():
		if ok {
			t.Fatalf("unexpected line %q", line.Text)
		}

		t.Fatalf("line channel closed early (engine error: %v)", engine.Err())
	case <-time.After(window):
	}
}

func TestEngineEmitsLastLineThenAppends(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			require.NoError(t, os.WriteFile(path, []byte("a\nb\nc"), 0o644))

			engine := startEngine(t, path, kind)

			// "a" and "b" precede the last line and must never show up;
			// "c" has no terminator yet so nothing is emitted at all
			requireNoLine(t, engine, 150*time.Millisecond)

			appendToFile(t, path, "\nd\n")

			assert.Equal(t, []string{"c", "d"}, collectLines(t, engine, 2, 5*time.Second))
		})
	}
}

func TestEngineTrailingTerminatorMeansEmptyLastLine(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

			engine := startEngine(t, path, kind)

			requireNoLine(t, engine, 150*time.Millisecond)

			appendToFile(t, path, "new\n")

			assert.Equal(t, []string{"new"}, collectLines(t, engine, 1, 5*time.Second))
		})
	}
}

func TestEngineAppendOrder(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			require.NoError(t, os.WriteFile(path, []byte("start\n"), 0o644))

			engine := startEngine(t, path, kind)

			appendToFile(t, path, "one\ntwo\n")
			appendToFile(t, path, "three\nfour\n")

			// every appended byte exactly once, split at every terminator, in order
			lines := collectLines(t, engine, 4, 5*time.Second)
			assert.Equal(t, []string{"one", "two", "three", "four"}, lines)
		})
	}
}

func TestEnginePartialLineBuffering(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			require.NoError(t, os.WriteFile(path, []byte("whole\n"), 0o644))

			engine := startEngine(t, path, kind)

			appendToFile(t, path, "par")
			requireNoLine(t, engine, 150*time.Millisecond)

			appendToFile(t, path, "tial\n")
			assert.Equal(t, []string{"partial"}, collectLines(t, engine, 1, 5*time.Second))
		})
	}
}

func TestEngineTruncation(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

			engine := startEngine(t, path, kind)

			appendToFile(t, path, "three\n")
			assert.Equal(t, []string{"three"}, collectLines(t, engine, 1, 5*time.Second))

			// rewrite in place with less content: same file, smaller size
			require.NoError(t, os.WriteFile(path, []byte("new1\nnew2\n"), 0o644))

			lines := collectLines(t, engine, 2, 5*time.Second)
			assert.Equal(t, []string{"new1", "new2"}, lines)
		})
	}
}

func TestEngineGoneAndRecreated(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")

			// "partial" has no terminator: it sits in the carry buffer
			require.NoError(t, os.WriteFile(path, []byte("old\npartial"), 0o644))

			engine := startEngine(t, path, kind)

			requireNoLine(t, engine, 150*time.Millisecond)

			require.NoError(t, os.Remove(path))
			time.Sleep(100 * time.Millisecond)

			// recreated file: the old partial line must not be glued
			// onto the new generation's content
			require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o644))

			assert.Equal(t, []string{"fresh"}, collectLines(t, engine, 1, 5*time.Second))
		})
	}
}

func TestEngineRotationByRename(t *testing.T) {
	for _, kind := range backendKinds() {
		t.Run(string(kind), func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.log")
			require.NoError(t, os.WriteFile(path, []byte("one\n"), 0o644))

			engine := startEngine(t, path, kind)

			appendToFile(t, path, "two\n")
			assert.Equal(t, []string{"two"}, collectLines(t, engine, 1, 5*time.Second))

			// classic logrotate: rename away, recreate under the same path
			require.NoError(t, os.Rename(path, filepath.Join(dir, "test.log.1")))
			require.NoError(t, os.WriteFile(path, []byte("rotated\n"), 0o644))

			assert.Equal(t, []string{"rotated"}, collectLines(t, engine, 1, 5*time.Second))
		})
	}
}

func TestEngineStartNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")

	engine, err := NewEngine(WatchConfig{Path: path, Backend: BackendPoll, PollInterval: testPollInterval})
	require.NoError(t, err)

	err = engine.Start()
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngineSetupFailureSurfacesDistinctly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "test.log")

	_, err := NewEngine(WatchConfig{Path: path, Backend: BackendNotify})
	require.ErrorIs(t, err, ErrSetupFailed)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestEngineStopIsPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte("quiet\n"), 0o644))

	// a very long poll interval: stopping must not wait it out
	engine, err := NewEngine(WatchConfig{Path: path, Backend: BackendPoll, PollInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, engine.Start())

	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, engine.Stop())
	assert.Less(t, time.Since(start), 2*time.Second)

	_, ok := <-engine.Lines()
	assert.False(t, ok, "line channel should be closed after Stop")
}
