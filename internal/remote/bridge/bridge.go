// Package bridge implements remote.Client by running an external bridge
// executable per call. The bridge wraps the vendor SDK and owns transport
// and authentication; this package only builds argument lists and
// collects output.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/remote"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

// DefaultTimeout bounds a single bridge invocation.
const DefaultTimeout = 60 * time.Second

// APIKeyEnv is the variable the bridge reads its credential from.
const APIKeyEnv = "DASHSCOPE_API_KEY"

// ErrNoCommand indicates the bridge command was left empty.
var ErrNoCommand = errors.New("no bridge command configured")

// Config holds configuration for the bridge backend.
type Config struct {
	// Command is the bridge executable, resolved through PATH.
	Command string

	// Args are prepended to every invocation (e.g. a script path).
	Args []string

	// APIKey is handed to the bridge through its environment.
	APIKey string

	// Timeout per invocation, defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to the global logger with a "bridge" prefix.
	Logger *log.Logger
}

// Client runs bridge invocations. It is safe for concurrent use.
type Client struct {
	command string
	args    []string
	apiKey  string
	timeout time.Duration
	logger  *log.Logger
}

var _ remote.Client = (*Client)(nil)

// New validates cfg and returns a bridge client. Missing credentials and a
// missing executable are reported here, before any job starts.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, remote.ErrMissingCredential
	}
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, ErrNoCommand
	}
	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("bridge command %q not found: %w", cfg.Command, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default().WithPrefix("bridge")
	}

	return &Client{
		command: path,
		args:    append([]string(nil), cfg.Args...),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// ListVoices runs `list-voices` and returns its JSON output undecoded.
func (c *Client) ListVoices(ctx context.Context, pageIndex, pageSize int) (remote.Response, error) {
	out, err := c.run(ctx, nil, "list-voices",
		"--page-index", strconv.Itoa(pageIndex),
		"--page-size", strconv.Itoa(pageSize))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// CreateVoice runs `create-voice` and parses the voice id it prints.
func (c *Client) CreateVoice(ctx context.Context, req remote.CreateVoiceRequest) (string, error) {
	flags := []string{
		"--target-model", req.TargetModel,
		"--prefix", req.Prefix,
		"--url", req.URL,
	}
	for _, hint := range req.LanguageHints {
		flags = append(flags, "--language-hint", hint)
	}

	out, err := c.run(ctx, nil, "create-voice", flags...)
	if err != nil {
		return "", err
	}
	id, err := voice.ParseVoiceID(out)
	if err != nil {
		return "", fmt.Errorf("create-voice: %w", err)
	}
	return id, nil
}

// QueryVoice runs `query-voice` and returns its JSON output undecoded.
func (c *Client) QueryVoice(ctx context.Context, voiceID string) (remote.Response, error) {
	out, err := c.run(ctx, nil, "query-voice", "--voice-id", voiceID)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// DeleteVoice runs `delete-voice`; success is the exit status.
func (c *Client) DeleteVoice(ctx context.Context, voiceID string) error {
	_, err := c.run(ctx, nil, "delete-voice", "--voice-id", voiceID)
	return err
}

// Synthesize runs `synthesize` with the text on stdin and returns the
// audio bytes printed on stdout.
func (c *Client) Synthesize(ctx context.Context, params remote.SynthesisParams) (remote.Response, error) {
	return c.run(ctx, strings.NewReader(params.Text), "synthesize",
		"--model", params.Model,
		"--voice", params.Voice,
		"--format", params.Format,
		"--volume", strconv.Itoa(params.Volume),
		"--speech-rate", strconv.FormatFloat(params.SpeechRate, 'f', -1, 64))
}

// run executes one bridge operation and returns its stdout.
func (c *Client) run(ctx context.Context, stdin io.Reader, op string, flags ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := make([]string, 0, len(c.args)+1+len(flags))
	args = append(args, c.args...)
	args = append(args, op)
	args = append(args, flags...)

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Env = append(os.Environ(), APIKeyEnv+"="+c.apiKey)

	// stdin has to be in place before the process starts
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	c.logger.Debug("bridge call", "op", op, "duration", time.Since(start), "bytes", stdout.Len(), "err", err)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%s timed out after %v", op, c.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %s", op, lastLine(msg))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stdout.Bytes(), nil
}

// lastLine keeps the final line of a multi-line stderr, which is where
// SDK exceptions put their message; tracebacks above it are dropped.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
