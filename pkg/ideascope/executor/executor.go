// Package executor runs generated experiment scripts one after another and
// records each script's exit status and combined output.
package executor

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Script is one program to run.
type Script struct {
	Name string
	Path string
}

// Discover lists files in dir with the given extension (e.g. ".py"), in name
// order. The script name is the file name without extension.
func Discover(dir, ext string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read script dir: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var out []Script
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext != "" && filepath.Ext(e.Name()) != ext {
			continue
		}
		out = append(out, Script{
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Result is the outcome of one script.
type Result struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	ExitCode int           `json:"exit_code"`
	LogPath  string        `json:"log_path"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// OK reports whether the script exited with status 0.
func (r Result) OK() bool {
	return r.ExitCode == 0 && r.Err == ""
}

// Summary aggregates a run.
type Summary struct {
	Results   []Result `json:"results"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
}

// SuccessRate is Succeeded over all results, or 0 for an empty run.
func (s Summary) SuccessRate() float64 {
	if len(s.Results) == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(len(s.Results))
}

// Runner executes scripts with an interpreter.
type Runner struct {
	// Interpreter is the program invoked with the script path, e.g. "python".
	// Empty runs the script directly.
	Interpreter string
	Args        []string
	// LogDir receives <name>.log per script.
	LogDir string
	// Timeout bounds each script. Zero means no limit.
	Timeout time.Duration

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (r *Runner) newID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entropy == nil {
		r.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return ulid.MustNew(ulid.Now(), r.entropy).String()
}

// Run executes scripts sequentially. A failing script is logged and counted;
// the run continues. Cancelling ctx stops the current script and skips the rest.
func (r *Runner) Run(ctx context.Context, scripts []Script) (Summary, error) {
	var sum Summary
	if r.LogDir != "" {
		if err := os.MkdirAll(r.LogDir, 0o755); err != nil {
			return sum, fmt.Errorf("create log dir: %w", err)
		}
	}
	for _, s := range scripts {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := r.runOne(ctx, s)
		if res.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
			log.Printf("[EXEC] %s failed (exit %d): %s", s.Name, res.ExitCode, res.Err)
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, nil
}

func (r *Runner) runOne(ctx context.Context, s Script) Result {
	res := Result{ID: r.newID(), Name: s.Name}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	path, err := filepath.Abs(s.Path)
	if err != nil {
		res.ExitCode = -1
		res.Err = err.Error()
		return res
	}
	var cmd *exec.Cmd
	if r.Interpreter != "" {
		args := append(append([]string{}, r.Args...), path)
		cmd = exec.CommandContext(runCtx, r.Interpreter, args...)
	} else {
		cmd = exec.CommandContext(runCtx, path, r.Args...)
	}
	cmd.Dir = filepath.Dir(path)

	if r.LogDir != "" {
		res.LogPath = filepath.Join(r.LogDir, s.Name+".log")
		f, err := os.Create(res.LogPath)
		if err != nil {
			res.ExitCode = -1
			res.Err = fmt.Sprintf("create log: %v", err)
			return res
		}
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	start := time.Now()
	err = cmd.Run()
	res.Duration = time.Since(start)
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut = true
		res.ExitCode = -1
		res.Err = fmt.Sprintf("timed out after %s", r.Timeout)
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == -1 {
			res.Err = err.Error()
		}
	default:
		res.ExitCode = -1
		res.Err = err.Error()
	}
	return res
}
