package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndaredline/internal/config"
	"ndaredline/internal/domain"
	"ndaredline/internal/oracle"
	"ndaredline/internal/redline"
	"ndaredline/internal/segmenter"
	"ndaredline/internal/summarizer"
	"ndaredline/internal/vectorstore"
	"ndaredline/internal/vectorstore/memory"
)

type fakeOracle struct {
	mu    sync.Mutex
	tools [][]oracle.FileSearchTool
}

func (f *fakeOracle) Invoke(_ context.Context, req oracle.Request) oracle.Result {
	switch req.Instructions {
	case summarizer.Instructions:
		return oracle.Success("Mutual NDA, two year term.")
	case segmenter.Instructions:
		return oracle.Success("Clause one.|||Clause two.")
	case redline.Instructions:
		f.mu.Lock()
		f.tools = append(f.tools, req.Tools)
		f.mu.Unlock()
		return oracle.Success("Redlined: " + req.Input)
	}
	return oracle.Failure(errors.New("unexpected instructions"))
}

type fixture struct {
	dir      string
	config   string
	contract string
	outDir   string
	oracle   *fakeOracle
}

func setup(t *testing.T, extraYAML string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		config:   filepath.Join(dir, "config.yaml"),
		contract: filepath.Join(dir, "acme_nda.md"),
		outDir:   filepath.Join(dir, "out"),
		oracle:   &fakeOracle{},
	}
	yaml := "output:\n  dir: " + f.outDir + "\nlog:\n  level: error\n" + extraYAML
	require.NoError(t, os.WriteFile(f.config, []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(f.contract, []byte("# NDA\nClause one. Clause two."), 0o644))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv(config.DefaultCollectionEnv, "vs_default")

	orig := newOracle
	newOracle = func(*config.AppConfig, string, *log.Logger) (oracle.Client, error) { return f.oracle, nil }
	t.Cleanup(func() { newOracle = orig })
	return f
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "provision", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	out, _, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "nda 1.2.3")
	assert.Contains(t, out, "commit: abc")
}

func TestAnalyzeWritesReport(t *testing.T) {
	f := setup(t, "")

	out, _, err := run(t, "analyze", f.contract, "--config", f.config)

	require.NoError(t, err)
	want := filepath.Join(f.outDir, "acme_nda_analysis.md")
	assert.Contains(t, out, "Analysis complete. Output saved to: "+want)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "=== NDA Contract Summary ===\nMutual NDA, two year term.\n\n"+
		"=== Redlined Clauses (2 processed) ===\n"+
		"Redlined: Clause one.\n\nRedlined: Clause two.", string(data))
	for _, tools := range f.oracle.tools {
		assert.Equal(t, []oracle.FileSearchTool{{VectorStoreIDs: []string{"vs_default"}}}, tools)
	}
}

func TestAnalyzeUserCollectionAddsTool(t *testing.T) {
	f := setup(t, "user_collections:\n  alice: vs_alice\n")

	_, _, err := run(t, "analyze", f.contract, "--config", f.config, "--user", "alice")

	require.NoError(t, err)
	require.Len(t, f.oracle.tools, 2)
	for _, tools := range f.oracle.tools {
		assert.Equal(t, []oracle.FileSearchTool{
			{VectorStoreIDs: []string{"vs_default"}},
			{VectorStoreIDs: []string{"vs_alice"}},
		}, tools)
	}
}

func TestAnalyzeMissingEnvIsConfigurationError(t *testing.T) {
	f := setup(t, "")
	t.Setenv(config.DefaultCollectionEnv, "")

	_, _, err := run(t, "analyze", f.contract, "--config", f.config)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NoDirExists(t, f.outDir)
}

func TestAnalyzeMissingFileFails(t *testing.T) {
	f := setup(t, "")

	_, _, err := run(t, "analyze", filepath.Join(f.dir, "nope.pdf"), "--config", f.config)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoad)
	assert.NoDirExists(t, f.outDir)
}

func TestAnalyzeWriteFailurePrintsReport(t *testing.T) {
	f := setup(t, "")
	// A regular file where the output directory should go makes MkdirAll fail.
	require.NoError(t, os.WriteFile(f.outDir, []byte("x"), 0o644))

	out, _, err := run(t, "analyze", f.contract, "--config", f.config)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "=== Final Aggregated Output (File write failed) ===\n"))
	assert.Contains(t, out, "Redlined: Clause two.")
}

func TestAnalyzeWithProgressLogsToFile(t *testing.T) {
	f := setup(t, "")

	out, stderr, err := run(t, "analyze", f.contract, "--config", f.config, "--progress")

	require.NoError(t, err)
	assert.Contains(t, out, "Analysis complete.")
	assert.Contains(t, out, "Log written to "+filepath.Join(f.outDir, "nda.log"))
	assert.FileExists(t, filepath.Join(f.outDir, "acme_nda_analysis.md"))
	assert.NotContains(t, stderr, "NDAAgent")
}

func TestAnalyzeWithProgressWriteFailurePrintsReport(t *testing.T) {
	f := setup(t, "")
	require.NoError(t, os.WriteFile(f.outDir, []byte("x"), 0o644))

	out, _, err := run(t, "analyze", f.contract, "--config", f.config, "--progress")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "=== Final Aggregated Output (File write failed) ===\n"))
	assert.Contains(t, out, "Redlined: Clause one.\n\nRedlined: Clause two.")
	assert.Contains(t, out, "Log file unavailable:")
}

func TestProvisionPrintsEnvLine(t *testing.T) {
	f := setup(t, "")
	store := memory.NewStorage(vectorstore.StatusInProgress, vectorstore.StatusCompleted)
	orig := newStorage
	newStorage = func(*config.AppConfig, string) (vectorstore.Storage, error) { return store, nil }
	t.Cleanup(func() { newStorage = orig })
	playbook := filepath.Join(f.dir, "playbook.md")
	require.NoError(t, os.WriteFile(playbook, []byte("fallbacks"), 0o644))

	out, _, err := run(t, "provision", playbook, "--config", f.config, "--poll-interval", "1ms")

	require.NoError(t, err)
	ids := store.Stores()
	require.Len(t, ids, 1)
	assert.Contains(t, out, `DEFAULT_VECTOR_STORE_ID="`+ids[0]+`"`)
	assert.Contains(t, out, "NDA Playbook Store (playbook.md)")
}

func TestProvisionFailureCleansUp(t *testing.T) {
	f := setup(t, "")
	store := memory.NewStorage(vectorstore.StatusFailed)
	orig := newStorage
	newStorage = func(*config.AppConfig, string) (vectorstore.Storage, error) { return store, nil }
	t.Cleanup(func() { newStorage = orig })
	playbook := filepath.Join(f.dir, "playbook.md")
	require.NoError(t, os.WriteFile(playbook, []byte("fallbacks"), 0o644))

	_, _, err := run(t, "provision", playbook, "--config", f.config, "--poll-interval", "1ms")

	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrIngestFailed)
	assert.Empty(t, store.Stores())
}
