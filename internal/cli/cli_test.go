package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/adapters/redis"
	"github.com/aretw0/gcoder/pkg/domain"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dualConfig = "testdata/dual.yaml"
	layersFile = "testdata/layers.yaml"
)

func TestExecute_Stdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: layersFile,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	require.NoError(t, err)

	out := stdout.String()
	assert.Equal(t, 2, strings.Count(out, "(PATHS for: 2 Extruders)"))
	assert.True(t, strings.HasSuffix(out, "(That's all folks!)\n"))
	assert.Contains(t, stderr.String(), ">>> Compiled 2 layers to stdout.")
}

func TestExecute_FileOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "part.gcode")
	var stderr bytes.Buffer
	err := Execute(context.Background(), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: layersFile,
		Output:     out,
		Quiet:      true,
		Stderr:     &stderr,
	})
	require.NoError(t, err)
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "G1 X0 Y0 Z0.2 F900")
}

func TestExecute_InvalidConfigWritesNothing(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("scalingFactor: one\n"), 0644))
	out := filepath.Join(t.TempDir(), "part.gcode")

	var stderr bytes.Buffer
	err := Execute(context.Background(), CompileOptions{
		ConfigPath: cfg,
		LayersPath: layersFile,
		Output:     out,
		Stderr:     &stderr,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
	assert.Contains(t, stderr.String(), "failing keys:")
	assert.Contains(t, stderr.String(), "scalingFactor")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecute_RejectedLayerIsReported(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: "testdata/mismatch.yaml",
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigMismatch)
	assert.Contains(t, stderr.String(), "payload 1:")
	assert.Equal(t, 1, strings.Count(stdout.String(), "(PATHS for: 2 Extruders)"))
}

func TestExecute_CancelledIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := Execute(ctx, CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: layersFile,
		Stdout:     &stdout,
		Stderr:     &bytes.Buffer{},
	})
	assert.NoError(t, err)
}

func TestExecute_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	err := Execute(context.Background(), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: layersFile,
		RedisURL:   "redis://" + mr.Addr() + "/0",
		Job:        "part-1",
		TTL:        time.Hour,
		Stderr:     &bytes.Buffer{},
	})
	require.NoError(t, err)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()
	sink := redis.NewFromClient(client, "part-1")

	status, err := sink.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, redis.StatusDone, status)

	lines, err := sink.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "(That's all folks!)", lines[len(lines)-1])
	assert.Greater(t, mr.TTL(sink.Key()), time.Duration(0))
}

func TestExecute_RedisRequiresJob(t *testing.T) {
	err := Execute(context.Background(), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: layersFile,
		RedisURL:   "redis://localhost:6379",
	})
	assert.EqualError(t, err, "--redis requires --job")
}

func TestExecute_BadLogFormat(t *testing.T) {
	err := Execute(context.Background(), CompileOptions{LogFormat: "xml"})
	assert.Error(t, err)
}

func TestRunWatch_RecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	layers := filepath.Join(dir, "layers.yaml")
	src, err := os.ReadFile(layersFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layers, src, 0644))
	out := filepath.Join(dir, "part.gcode")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr safeBuffer
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, CompileOptions{
			ConfigPath: dualConfig,
			LayersPath: layers,
			Output:     out,
			Watch:      true,
			Interval:   10 * time.Millisecond,
			Stderr:     &stderr,
		})
	}()

	countLayers := func() int {
		data, err := os.ReadFile(out)
		if err != nil {
			return -1
		}
		return strings.Count(string(data), "(PATHS for: 2 Extruders)")
	}
	require.Eventually(t, func() bool { return countLayers() == 2 }, 5*time.Second, 10*time.Millisecond)

	single := "layers:\n  - positionZ: 0.2\n    paths:\n      - - [{x: 0, y: 0}]\n      - []\n"
	require.NoError(t, os.WriteFile(layers, []byte(single), 0644))
	require.Eventually(t, func() bool { return countLayers() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Contains(t, stderr.String(), "Change detected, recompiling.")
}

func TestRunWatch_SkipsUnchangedAndFollowsRenames(t *testing.T) {
	dir := t.TempDir()
	layers := filepath.Join(dir, "layers.yaml")
	src, err := os.ReadFile(layersFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(layers, src, 0644))
	out := filepath.Join(dir, "part.gcode")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr safeBuffer
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, CompileOptions{
			ConfigPath: dualConfig,
			LayersPath: layers,
			Output:     out,
			Watch:      true,
			Interval:   50 * time.Millisecond,
			Stderr:     &stderr,
		})
	}()
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "Waiting for changes...")
	}, 5*time.Second, 10*time.Millisecond)

	// Same bytes, and an unrelated file in the same directory.
	require.NoError(t, os.WriteFile(layers, src, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.NotContains(t, stderr.String(), "Change detected")

	// Save by rename, as many editors do.
	single := "layers:\n  - positionZ: 0.2\n    paths:\n      - - [{x: 0, y: 0}]\n      - []\n"
	tmp := filepath.Join(dir, ".layers.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte(single), 0644))
	require.NoError(t, os.Rename(tmp, layers))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Count(string(data), "(PATHS for: 2 Extruders)") == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, strings.Count(stderr.String(), "Change detected, recompiling."))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunWatch_MissingDirectory(t *testing.T) {
	var stderr safeBuffer
	err := RunWatch(context.Background(), createEngine(false, logging.NewNop()), CompileOptions{
		ConfigPath: dualConfig,
		LayersPath: filepath.Join(t.TempDir(), "gone", "layers.yaml"),
		Quiet:      true,
		Stderr:     &stderr,
	})
	assert.ErrorContains(t, err, "failed to watch")
}

func TestFingerprint(t *testing.T) {
	a, err := fingerprint(dualConfig, layersFile)
	require.NoError(t, err)
	b, err := fingerprint(dualConfig, layersFile)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := fingerprint(layersFile, dualConfig)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = fingerprint("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Validate(&buf, ValidateOptions{ConfigPath: dualConfig}))
	assert.Contains(t, buf.String(), "Configuration is valid")

	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("scalingFactor: 1\n"), 0644))
	buf.Reset()
	err := Validate(&buf, ValidateOptions{ConfigPath: cfg})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Configuration is invalid")
	assert.Contains(t, buf.String(), "platform")
}

func TestValidate_AgainstExportedSchema(t *testing.T) {
	dir := t.TempDir()
	reqs, ok := createEngine(false, logging.NewNop()).Requirements("gcoder")
	require.True(t, ok)
	exported, err := json.Marshal(reqs)
	require.NoError(t, err)
	full := filepath.Join(dir, "gcoder.json")
	require.NoError(t, os.WriteFile(full, exported, 0644))

	var buf bytes.Buffer
	require.NoError(t, Validate(&buf, ValidateOptions{ConfigPath: dualConfig, SchemaPath: full}))

	strict := filepath.Join(dir, "enclosure.json")
	require.NoError(t, os.WriteFile(strict, []byte(`{"enclosure.temperature": "float", "extruders": "[object]", "extruders[].fanSpeed": "[float]"}`), 0644))
	buf.Reset()
	err = Validate(&buf, ValidateOptions{ConfigPath: dualConfig, SchemaPath: strict})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)

	var invalid *domain.ConfigInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "enclosure.json", invalid.Stage)
	assert.ElementsMatch(t, []string{"enclosure.temperature", "extruders[0].fanSpeed", "extruders[1].fanSpeed"}, invalid.Keys)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": "decimal"}`), 0644))
	err = Validate(&buf, ValidateOptions{ConfigPath: dualConfig, SchemaPath: bad})
	assert.ErrorContains(t, err, "unsupported type: decimal")
}

func TestPrintRequirements(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintRequirements(&buf, []string{"gcoder"}, false))
	assert.Contains(t, buf.String(), "| `extruders[].fastFeedRate` | float |")

	buf.Reset()
	require.NoError(t, PrintRequirements(&buf, nil, false))
	for _, kind := range []string{"## file", "## gcoder", "## memory", "## redis"} {
		assert.Contains(t, buf.String(), kind)
	}

	assert.Error(t, PrintRequirements(&buf, []string{"laser"}, false))
}

func TestPrintGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintGraph(context.Background(), &buf, GraphOptions{}))
	assert.Contains(t, buf.String(), "layers -- \"geometry\" --> s0_gcoder")
	assert.NotContains(t, buf.String(), "classDef")

	buf.Reset()
	require.NoError(t, PrintGraph(context.Background(), &buf, GraphOptions{
		ConfigPath: dualConfig,
		LayersPath: "testdata/mismatch.yaml",
	}))
	assert.Contains(t, buf.String(), "class s0_gcoder rejected;")
	assert.Contains(t, buf.String(), "class s1_memory finished;")
}

func TestHandleExecutionError(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	assert.NoError(t, handleExecutionError(ctx, &buf, nil))
	assert.NoError(t, handleExecutionError(ctx, &buf, errors.Join(errors.New("x"), context.Canceled)))
	assert.Error(t, handleExecutionError(ctx, &buf, errors.New("boom")))
	assert.Empty(t, buf.String())
}

func TestHandleExecutionError_NamesSignal(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGTERM, ">>> Terminated."},
		{os.Interrupt, ">>> Interrupted."},
	}
	for _, tt := range tests {
		t.Run(tt.sig.String(), func(t *testing.T) {
			sc := NewSignalContext(context.Background())
			defer sc.Cancel()
			sc.sigCh <- tt.sig
			require.Eventually(t, func() bool { return sc.Err() != nil }, time.Second, 5*time.Millisecond)
			assert.Equal(t, tt.sig, sc.Signal())

			var buf bytes.Buffer
			assert.NoError(t, handleExecutionError(sc, &buf, sc.Err()))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestHandleExecutionError_CancelledWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()

	var buf bytes.Buffer
	assert.NoError(t, handleExecutionError(sc, &buf, context.Canceled))
	assert.Nil(t, sc.Signal())
	assert.Empty(t, buf.String())
}
