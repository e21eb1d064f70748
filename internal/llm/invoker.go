// Package llm invokes an external claude-compatible CLI subprocess to
// generate tailored text, wrapping the call in a circuit breaker so a run of
// CLI failures (auth expired, binary missing) fails fast instead of making
// every pipeline stall on the full subprocess timeout.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCLINotFound means the configured LLM command could not be started.
	ErrCLINotFound = errors.New("llm cli not found")
	// ErrCLITimeout means the subprocess exceeded its timeout and was killed.
	ErrCLITimeout = errors.New("llm cli timed out")
	// ErrCLIAuth means the subprocess reported an authentication failure.
	ErrCLIAuth = errors.New("llm cli authentication failure")
	// ErrCLIProcess means the subprocess exited non-zero for a reason other than auth.
	ErrCLIProcess = errors.New("llm cli process error")
	// ErrCircuitOpen means the breaker is open and the call was rejected
	// without invoking the subprocess.
	ErrCircuitOpen = gobreaker.ErrOpenState
)

var authKeywords = []string{"not authenticated", "login", "auth", "setup-token", "subscription"}

// envelope mirrors the JSON structure the CLI prints to stdout in
// --output-format json mode.
type envelope struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// Invoker runs the configured LLM CLI as a subprocess and returns its text
// output, with a circuit breaker guarding against sustained failure.
type Invoker struct {
	command string
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// New creates an Invoker. maxFailures consecutive failures trip the breaker
// open for one reset interval before allowing a single probe request.
func New(command, model string, timeout time.Duration, maxFailures uint32) *Invoker {
	settings := gobreaker.Settings{
		Name:        "llm-invoker",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	return &Invoker{
		command: command,
		model:   model,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Generate runs the CLI with systemPrompt/userMessage and returns the
// resulting text. A prior run of failures trips the breaker; while open,
// Generate returns ErrCircuitOpen without spawning a subprocess.
func (inv *Invoker) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	result, err := inv.breaker.Execute(func() (interface{}, error) {
		return inv.run(ctx, systemPrompt, userMessage)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (inv *Invoker) run(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	args := []string{
		"-p", userMessage,
		"--output-format", "json",
		"--system-prompt", systemPrompt,
		"--max-turns", "3",
		"--no-session-persistence",
	}
	if inv.model != "" {
		args = append(args, "--model", inv.model)
	}

	cmd := exec.CommandContext(runCtx, inv.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", ErrCLITimeout
	}

	var env *envelope
	if parsed, perr := parseEnvelope(stdout.String()); perr == nil {
		env = parsed
	}

	if err != nil {
		if errors.As(err, new(*exec.Error)) {
			return "", fmt.Errorf("%w: %v", ErrCLINotFound, err)
		}
		if detectAuthError(stderr.String(), env) {
			return "", ErrCLIAuth
		}
		return "", fmt.Errorf("%w: %v: %s", ErrCLIProcess, err, strings.TrimSpace(stderr.String()))
	}

	if env == nil {
		return "", fmt.Errorf("%w: malformed output", ErrCLIProcess)
	}
	if env.IsError {
		if detectAuthError(stderr.String(), env) {
			return "", ErrCLIAuth
		}
		return "", fmt.Errorf("%w: %s", ErrCLIProcess, env.Result)
	}
	return env.Result, nil
}

func parseEnvelope(stdout string) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func detectAuthError(stderr string, env *envelope) bool {
	lower := strings.ToLower(stderr)
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if env != nil && env.IsError {
		resultLower := strings.ToLower(env.Result)
		for _, kw := range authKeywords {
			if strings.Contains(resultLower, kw) {
				return true
			}
		}
	}
	return false
}
