package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/stackmap/errors"
)

const counterListing = `.class demo/Counter
.method public static count(I)I
.limit stack 1
.limit locals 2
    iconst_0
    istore 1
loop:
    iload 0
    ifle done
    iinc 1 1
    iinc 0 -1
    goto loop
done:
    iload 1
    ireturn
.end method
`

const mixedListing = `.method static add(JJ)J
.limit stack 4
.limit locals 4
    lload 0
    lload 2
    ladd
    lreturn
.end method
.method static broken()V
    pop
    return
.end method
`

const noLimitsListing = `.method static add(JJ)J
    lload 0
    lload 2
    ladd
    lreturn
.end method
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func runJSON(t *testing.T, args ...string) []methodFrames {
	t.Helper()
	out, _, err := run(t, append([]string{"frames", "--format", "json"}, args...)...)
	require.NoError(t, err)
	var frames []methodFrames
	require.NoError(t, json.Unmarshal([]byte(out), &frames), out)
	return frames
}

func TestFramesText(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	out, _, err := run(t, "frames", path)
	require.NoError(t, err)
	require.Contains(t, out, "demo/Counter.count(I)I  stack=1 locals=2")
	require.Contains(t, out, "| INDEX | INSTRUCTION |")
	require.Contains(t, out, "ifle 7")
}

func TestFramesJSON(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	methods := runJSON(t, path)
	require.Len(t, methods, 1)
	m := methods[0]
	require.Equal(t, "demo/Counter.count(I)I", m.Method)
	require.Equal(t, 1, m.MaxStack)
	require.Equal(t, 2, m.MaxLocals)
	require.Len(t, m.Frames, 9)
	require.Equal(t, []string{"I", "I"}, m.Frames[2].Locals)
	require.Equal(t, []string{"I"}, m.Frames[8].Stack)
}

func TestFramesComputeMaxs(t *testing.T) {
	path := writeFile(t, "add.jasm", noLimitsListing)
	methods := runJSON(t, "--compute-maxs", path)
	require.Len(t, methods, 1)
	require.Equal(t, 4, methods[0].MaxStack)
	require.Equal(t, 4, methods[0].MaxLocals)
}

func TestSourceDomain(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)

	methods := runJSON(t, "--domain", "source", path)
	require.Equal(t, []string{"{0}"}, methods[0].Frames[1].Stack)

	t.Setenv("STACKMAP_DOMAIN", "source")
	methods = runJSON(t, path)
	require.Equal(t, []string{"{0}"}, methods[0].Frames[1].Stack)
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	config := writeFile(t, "stackmap.yaml", "domain: source\n")
	methods := runJSON(t, "--config", config, path)
	require.Equal(t, []string{"{0}"}, methods[0].Frames[1].Stack)

	_, _, err := run(t, "frames", "--config", filepath.Join(t.TempDir(), "missing.yaml"), path)
	require.ErrorContains(t, err, "reading config")
}

func TestConfigInHome(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".stackmap.yaml"), []byte("domain: bogus\n"), 0o644))

	homedir.DisableCache = true
	t.Setenv("HOME", home)
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"frames", path})
	require.ErrorContains(t, root.Execute(), `unknown domain "bogus"`)
}

func TestMethodFilter(t *testing.T) {
	path := writeFile(t, "mixed.jasm", mixedListing)
	methods := runJSON(t, "--method", "Main.add(JJ)J", path)
	require.Len(t, methods, 1)

	_, _, err := run(t, "frames", "--method", "nope", path)
	require.ErrorContains(t, err, `no method matching "nope"`)
}

func TestFramesErrors(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	_, _, err := run(t, "frames", "--domain", "types", path)
	require.ErrorContains(t, err, `unknown domain "types"`)

	_, _, err = run(t, "frames", "--format", "xml", path)
	require.ErrorContains(t, err, "unknown output format: xml")

	bad := writeFile(t, "bad.jasm", ".method static m()V\n  iadd2\n.end method\n")
	_, _, err = run(t, "frames", bad)
	ae, ok := err.(*errors.AssemblyError)
	require.True(t, ok, "got %T", err)
	require.Equal(t, errors.E4001, ae.Code)

	broken := writeFile(t, "mixed.jasm", mixedListing)
	_, _, err = run(t, "frames", "--method", "broken", broken)
	analysisErr, ok := errors.AsAnalysisError(err)
	require.True(t, ok)
	require.Equal(t, errors.E2001, analysisErr.Code)
}

func TestDis(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	out, _, err := run(t, "dis", path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "demo/Counter.count(I)I  public static\n"), out)
	require.Contains(t, out, "| iconst_0 |")
}

func TestCfg(t *testing.T) {
	path := writeFile(t, "counter.jasm", counterListing)
	out, _, err := run(t, "cfg", path)
	require.NoError(t, err)
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "demo/Counter.count(I)I")

	mixed := writeFile(t, "mixed.jasm", mixedListing)
	_, _, err = run(t, "cfg", mixed)
	require.ErrorContains(t, err, "has 2 methods, select one with --method")
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "counter.jasm", counterListing)
	out, _, err := run(t, "check", good)
	require.NoError(t, err)
	require.Contains(t, out, "ok   demo/Counter.count(I)I (9 frames)")
	require.Contains(t, out, "1 methods ok")

	mixed := writeFile(t, "mixed.jasm", mixedListing)
	out, logs, err := run(t, "check", "--log-level", "debug", "--concurrency", "2", good, mixed)
	require.EqualError(t, err, "1 of 3 methods failed")
	require.Contains(t, out, "FAIL Main.broken()V")
	require.Contains(t, out, "[E2001]")
	require.Contains(t, logs, "batch complete")
}

func TestMaxs(t *testing.T) {
	path := writeFile(t, "add.jasm", noLimitsListing)
	out, _, err := run(t, "maxs", path)
	require.NoError(t, err)

	var row []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Main.add(JJ)J") {
			row = strings.Fields(line)
		}
	}
	require.Equal(t, []string{"|", "Main.add(JJ)J", "|", "0", "|", "4", "|", "0", "|", "4", "|"}, row)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	require.Contains(t, out, "version dev")
}
