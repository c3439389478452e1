package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/testutil"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

func writeScript(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name+scriptExt)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func newRequest(task string, capture *Capture) *Request {
	return &Request{
		RunID:    "run-1",
		Task:     task,
		Wallet:   model.Wallet{PrivateKey: testutil.Key1, Name: "alpha", Token: "tok"},
		Identity: testutil.Address1,
		Position: 2,
		Total:    3,
		TxCount:  7,
		Settings: map[string]any{"ATTEMPTS": 5},
		Log:      capture.Sink(),
	}
}

func TestCatalogue(t *testing.T) {
	c := NewCatalogue()
	noop := Func(func(ctx context.Context, req *Request) (*Outcome, error) { return Success(""), nil })

	require.NoError(t, c.Register("accountLogin", "", noop))
	require.NoError(t, c.Register("custom", "My Task", noop))
	assert.Error(t, c.Register("custom", "", noop))
	assert.Error(t, c.Register("", "", noop))

	assert.Equal(t, []string{"accountLogin", "custom"}, c.Names())
	assert.Equal(t, "Account Login", c.Label("accountLogin"))
	assert.Equal(t, "My Task", c.Label("custom"))
	assert.Equal(t, "nope", c.Label("nope"))

	_, err := c.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownTask)

	e, err := c.Lookup("custom")
	require.NoError(t, err)
	outcome, err := e.Execute(context.Background(), &Request{})
	require.NoError(t, err)
	assert.True(t, outcome.Done())
}

func TestOutcomeDone(t *testing.T) {
	assert.True(t, Success("").Done())
	assert.True(t, Skipped("cooldown").Done())
	assert.False(t, Failure("").Done())
	var nilOutcome *Outcome
	assert.False(t, nilOutcome.Done())
}

func TestCapture(t *testing.T) {
	var forwarded []string
	c := NewCapture(func(line string) { forwarded = append(forwarded, line) })
	sink := c.Sink()
	sink("one")
	sink("two")

	assert.Equal(t, []string{"one", "two"}, c.Lines())
	assert.Equal(t, []string{"one", "two"}, forwarded)
}

func TestClassifier(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		task  string
		lines []string
		want  bool
	}{
		{"login phrase", "accountLogin", []string{"Account Login completed."}, true},
		{"check-in phrase", "accountCheckIn", []string{"Account Check-in completed."}, true},
		{"profile stats", "accountCheck", []string{"Checking Profile Stats for 0xabc"}, true},
		{"points line", "accountCheck", []string{"id: 42, TotalPoints: 100"}, true},
		{"faucet cooldown", "accountClaimFaucet", []string{"Faucet not available."}, true},
		{"generic keyword", "performSwapUSDC", []string{"Swap Confirmed: 0x01"}, true},
		{"nothing", "performSwapUSDC", []string{"Insufficient balance"}, false},
		{"no lines", "accountLogin", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Succeeded(tt.task, tt.lines))
		})
	}
}

func TestClassifierOverrides(t *testing.T) {
	c, err := NewClassifier(map[string]string{
		"socialTask": `len(lines) > 1 && task == "socialTask"`,
	})
	require.NoError(t, err)
	assert.True(t, c.Succeeded("socialTask", []string{"a", "b"}))
	assert.False(t, c.Succeeded("socialTask", []string{"a"}))

	_, err = NewClassifier(map[string]string{"broken": `lines +`})
	assert.Error(t, err)
}

func TestScriptExecutorOutcomes(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		source  string
		want    *Outcome
		wantErr bool
	}{
		{"object", `return {status: "skipped", detail: "cooldown"}`, Skipped("cooldown"), false},
		{"string", `return "failure"`, Failure(""), false},
		{"true", `return true`, Success(""), false},
		{"false", `return false`, Failure(""), false},
		{"undefined", `log("nothing to say")`, nil, false},
		{"bad status", `return "done"`, nil, true},
		{"throws", `throw new Error("rpc down")`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewScriptExecutor(tt.name, writeScript(t, dir, tt.name, tt.source), ScriptOptions{})
			require.NoError(t, err)

			outcome, err := e.Execute(context.Background(), newRequest(tt.name, NewCapture(nil)))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestScriptExecutorBindings(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "accountLogin", `
log("wallet " + wallet.address + " " + wallet.name + " " + wallet.position + "/" + wallet.total);
log("tx " + txCount + " attempts " + settings.ATTEMPTS + " run " + runId);
return {status: "success", detail: signMessage("pharos")};
`)
	e, err := NewScriptExecutor("accountLogin", path, ScriptOptions{})
	require.NoError(t, err)

	capture := NewCapture(nil)
	outcome, err := e.Execute(context.Background(), newRequest("accountLogin", capture))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.Status)
	assert.Equal(t, []string{
		"wallet " + testutil.Address1 + " alpha 2/3",
		"tx 7 attempts 5 run run-1",
	}, capture.Lines())

	sig, err := hexutil.Decode(outcome.Detail)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("pharos")), sig)
	require.NoError(t, err)
	assert.Equal(t, testutil.Address1, crypto.PubkeyToAddress(*pub).Hex())
}

func TestScriptExecutorHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "method": r.Method})
	}))
	defer server.Close()

	dir := t.TempDir()
	path := writeScript(t, dir, "accountCheckIn", `
var res = http.post(settings.API + "/sign/in", {address: wallet.address}, {Authorization: "Bearer " + wallet.token});
if (res.status !== 200 || res.body.code !== 0) { return "failure"; }
log("Account Check-in completed. " + res.body.method);
return "success";
`)
	e, err := NewScriptExecutor("accountCheckIn", path, ScriptOptions{})
	require.NoError(t, err)

	capture := NewCapture(nil)
	req := newRequest("accountCheckIn", capture)
	req.Settings["API"] = server.URL
	outcome, err := e.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome.Status)
	assert.Equal(t, []string{"Account Check-in completed. POST"}, capture.Lines())
}

func TestScriptExecutorTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "spin", `while (true) {}`)
	e, err := NewScriptExecutor("spin", path, ScriptOptions{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), newRequest("spin", NewCapture(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestNewScriptExecutorRejectsBadSource(t *testing.T) {
	dir := t.TempDir()
	_, err := NewScriptExecutor("broken", writeScript(t, dir, "broken", `return {`), ScriptOptions{})
	assert.Error(t, err)

	_, err = NewScriptExecutor("missing", filepath.Join(dir, "missing.js"), ScriptOptions{})
	assert.Error(t, err)
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "zeta", `return true`)
	writeScript(t, dir, "socialTask", `return true`)
	writeScript(t, dir, "accountLogin", `return true`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))

	c := NewCatalogue()
	n, err := LoadScripts(c, dir, ScriptOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"accountLogin", "socialTask", "zeta"}, c.Names())

	n, err = LoadScripts(NewCatalogue(), filepath.Join(dir, "absent"), ScriptOptions{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFuncPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	e := Func(func(ctx context.Context, req *Request) (*Outcome, error) { return nil, boom })
	_, err := e.Execute(context.Background(), &Request{})
	assert.ErrorIs(t, err, boom)
}
