package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/go-resty/resty/v2"
	"github.com/mitchellh/mapstructure"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

const scriptExt = ".js"

// ScriptOptions configures the script host.
type ScriptOptions struct {
	// Timeout bounds a single script run. Zero means no limit.
	Timeout time.Duration
	// HTTPClient backs the http binding; a client with a 30s timeout is used
	// when nil.
	HTTPClient *resty.Client
	Logger     sdklogging.Logger
}

// ScriptExecutor runs a JavaScript task file. The file body is evaluated as
// a function body; what it returns becomes the outcome:
//
//	undefined/null         -> no outcome
//	true / false           -> success / failure
//	"success"|"failure"|"skipped"
//	{status, detail}
//
// A thrown exception is returned as an error.
type ScriptExecutor struct {
	name    string
	path    string
	program *goja.Program
	opts    ScriptOptions
}

// NewScriptExecutor compiles the script at path once; every Execute runs it
// in a fresh runtime.
func NewScriptExecutor(name, path string, opts ScriptOptions) (*ScriptExecutor, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task script %s: %w", path, err)
	}

	program, err := goja.Compile(path, "(function() {"+string(source)+"\n})()", false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile task script %s: %w", path, err)
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = resty.New().SetTimeout(30 * time.Second)
	}
	opts.Logger = logger.EnsureLogger(opts.Logger)

	return &ScriptExecutor{name: name, path: path, program: program, opts: opts}, nil
}

func (s *ScriptExecutor) Execute(ctx context.Context, req *Request) (*Outcome, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	configureRuntime(vm)

	if err := s.bind(ctx, vm, req); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	started := time.Now()
	result, err := vm.RunProgram(s.program)
	s.opts.Logger.Debug("Task script finished", "task", s.name, "duration", time.Since(started), "error", err)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("task %s interrupted: %v", s.name, interrupted.Value())
		}
		return nil, fmt.Errorf("task %s: %w", s.name, err)
	}

	return toOutcome(result)
}

type scriptWallet struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Token    string `json:"token"`
	Position int    `json:"position"`
	Total    int    `json:"total"`
}

type httpResponse struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

func (s *ScriptExecutor) bind(ctx context.Context, vm *goja.Runtime, req *Request) error {
	settings := map[string]any{}
	for k, v := range req.Settings {
		settings[k] = v
	}

	bindings := map[string]any{
		"task":    req.Task,
		"runId":   req.RunID,
		"txCount": req.TxCount,
		"wallet": scriptWallet{
			Address:  req.Identity,
			Name:     req.Wallet.Name,
			Token:    req.Wallet.Token,
			Position: req.Position,
			Total:    req.Total,
		},
		"settings": settings,
		"log": func(line string) {
			req.log(line)
		},
		"sleep": func(ms int64) {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(ms) * time.Millisecond):
			}
		},
		"signMessage": func(message string) (string, error) {
			return wallet.SignMessage(req.Wallet.PrivateKey, message)
		},
		"http": map[string]any{
			"get": func(url string, headers map[string]string) (*httpResponse, error) {
				return s.do(ctx, "GET", url, nil, headers)
			},
			"post": func(url string, body any, headers map[string]string) (*httpResponse, error) {
				return s.do(ctx, "POST", url, body, headers)
			},
		},
	}

	for key, value := range bindings {
		if err := vm.Set(key, value); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func (s *ScriptExecutor) do(ctx context.Context, method, url string, body any, headers map[string]string) (*httpResponse, error) {
	request := s.opts.HTTPClient.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		request.SetBody(body)
	}

	response, err := request.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}

	out := &httpResponse{Status: response.StatusCode(), Body: ""}
	if raw := response.Body(); len(raw) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			out.Body = decoded
		} else {
			out.Body = string(raw)
		}
	}
	return out, nil
}

func configureRuntime(vm *goja.Runtime) {
	objectPrototype := vm.Get("Object").ToObject(vm).Get("prototype").ToObject(vm)
	objectPrototype.Set("toString", func() string {
		return "[object Object]"
	})
}

func toOutcome(value goja.Value) (*Outcome, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}

	var out Outcome
	switch v := value.Export().(type) {
	case bool:
		if v {
			return Success(""), nil
		}
		return Failure(""), nil
	case string:
		out.Status = OutcomeStatus(v)
	case map[string]any:
		if err := mapstructure.Decode(v, &out); err != nil {
			return nil, fmt.Errorf("invalid task result: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid task result of type %T", v)
	}

	if !out.Status.Valid() {
		return nil, fmt.Errorf("invalid task status %q", out.Status)
	}
	return &out, nil
}

// LoadScripts registers a ScriptExecutor for every <name>.js in dir: known
// tasks first in menu order, then any other script by name.
func LoadScripts(catalogue *Catalogue, dir string, opts ScriptOptions) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list task scripts in %s: %w", dir, err)
	}

	available := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != scriptExt {
			continue
		}
		available[strings.TrimSuffix(entry.Name(), scriptExt)] = filepath.Join(dir, entry.Name())
	}

	var names []string
	for _, t := range KnownTasks {
		if _, ok := available[t.Name]; ok {
			names = append(names, t.Name)
		}
	}
	var extra []string
	for name := range available {
		if knownLabel(name) == name {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	for _, name := range names {
		e, err := NewScriptExecutor(name, available[name], opts)
		if err != nil {
			return 0, err
		}
		if err := catalogue.Register(name, "", e); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}
