package component_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshuapare/specadjust/pkg/component"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeSpec writes content to a fresh file under t.TempDir.
func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClearWritableHashes_Golden(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sl-adjusted.xml")

	var cleared []string
	var written string
	report, err := component.ClearWritableHashes("testdata/sl.xml", out, &component.Options{
		OnClear: func(region string) { cleared = append(cleared, region) },
		OnWrite: func(path string) { written = path },
	})
	require.NoError(t, err)

	want := &component.Report{
		Regions:    []string{"data", "bss"},
		Cleared:    2,
		OutputPath: out,
		Written:    true,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"data", "bss"}, cleared)
	assert.Equal(t, out, written)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	golden, err := os.ReadFile("testdata/sl.golden.xml")
	require.NoError(t, err)
	if diff := cmp.Diff(string(golden), string(got)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestClearWritableHashes_SingleRegion(t *testing.T) {
	in := writeSpec(t, `<component name="c"><provides>`+
		`<memory logical="DATA" writable="true"><hash value="abc123"/></memory>`+
		`</provides></component>`)
	out := filepath.Join(t.TempDir(), "out.xml")

	var notices []string
	report, err := component.ClearWritableHashes(in, out, &component.Options{
		OnClear: func(region string) { notices = append(notices, region) },
	})
	require.NoError(t, err)
	assert.True(t, report.Written)
	assert.Equal(t, []string{"DATA"}, notices)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `<component name="c">
  <provides>
    <memory logical="DATA" writable="true">
      <hash value="none"/>
    </memory>
  </provides>
</component>
`, string(got))
}

func TestClearWritableHashes_NoWritableRegion(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xml")

	called := false
	report, err := component.ClearWritableHashes("testdata/readonly.xml", out, &component.Options{
		OnWrite: func(string) { called = true },
	})
	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.Zero(t, report.Cleared)
	assert.Empty(t, report.OutputPath)
	assert.False(t, called, "OnWrite must not run when nothing matched")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file expected")
}

func TestClearWritableHashes_LeavesExistingOutputWhenNothingMatches(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o644))

	report, err := component.ClearWritableHashes("testdata/readonly.xml", out, nil)
	require.NoError(t, err)
	assert.False(t, report.Written)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

func TestClearWritableHashes_InputNotFound(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := component.ClearWritableHashes(filepath.Join(t.TempDir(), "missing.xml"), out, nil)
	require.ErrorIs(t, err, component.ErrInputNotFound)
	assert.NotErrorIs(t, err, component.ErrParse)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClearWritableHashes_InputIsDirectory(t *testing.T) {
	_, err := component.ClearWritableHashes(t.TempDir(), filepath.Join(t.TempDir(), "out.xml"), nil)
	require.ErrorIs(t, err, component.ErrInputNotFound)
}

func TestClearWritableHashes_Malformed(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := component.ClearWritableHashes("testdata/malformed.xml", out, nil)
	require.ErrorIs(t, err, component.ErrParse)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output expected for malformed input")
}

func TestClearWritableHashes_EmptyInput(t *testing.T) {
	in := writeSpec(t, "")

	_, err := component.ClearWritableHashes(in, filepath.Join(t.TempDir(), "out.xml"), nil)
	require.ErrorIs(t, err, component.ErrParse)
}

func TestClearWritableHashes_OutputNotWritable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing-dir", "out.xml")

	_, err := component.ClearWritableHashes("testdata/sl.xml", out, nil)
	require.ErrorIs(t, err, component.ErrWrite)
}

func TestClearWritableHashes_ReadOnlyOutput(t *testing.T) {
	if os.PathSeparator == '\\' || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	out := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o444))

	_, err := component.ClearWritableHashes("testdata/sl.xml", out, nil)
	require.ErrorIs(t, err, component.ErrWrite)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

func TestClearWritableHashes_SymlinkedOutput(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.xml")
	link := filepath.Join(dir, "link.xml")
	require.NoError(t, os.WriteFile(target, []byte("previous"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	_, err := component.ClearWritableHashes("testdata/sl.xml", link, nil)
	require.NoError(t, err)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "output link must survive")
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	golden, err := os.ReadFile("testdata/sl.golden.xml")
	require.NoError(t, err)
	assert.Equal(t, string(golden), string(got))
}

func TestClearWritableHashes_DuplicateHashValue(t *testing.T) {
	in := writeSpec(t, `<component><provides><memory logical="d" writable="true">`+
		`<hash value="a" value="b"/></memory></provides></component>`)
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := component.ClearWritableHashes(in, out, nil)
	require.ErrorIs(t, err, component.ErrParse)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestClearWritableHashes_DefaultNamespace(t *testing.T) {
	in := writeSpec(t, `<component xmlns="urn:x"><provides><memory logical="d" writable="true">`+
		`<hash value="a"/></memory></provides></component>`)
	out := filepath.Join(t.TempDir(), "out.xml")

	report, err := component.ClearWritableHashes(in, out, nil)
	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.Zero(t, report.Cleared)
}

func TestClearWritableHashes_PreservesOtherContent(t *testing.T) {
	in := writeSpec(t, `<component><desc>Hello <b>big</b> <i>world</i></desc><pad>  </pad>`+
		`<provides><memory logical="d" writable="true"><hash value="a"/></memory></provides></component>`)
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := component.ClearWritableHashes(in, out, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `<component>
  <desc>Hello <b>big</b> <i>world</i></desc>
  <pad>  </pad>
  <provides>
    <memory logical="d" writable="true">
      <hash value="none"/>
    </memory>
  </provides>
</component>
`, string(got))
}

func TestClearWritableHashes_Idempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.xml")
	second := filepath.Join(dir, "second.xml")

	_, err := component.ClearWritableHashes("testdata/sl.xml", first, nil)
	require.NoError(t, err)
	report, err := component.ClearWritableHashes(first, second, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Cleared)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestClearWritableHashes_InPlace(t *testing.T) {
	in := writeSpec(t, `<component><provides><memory logical="d" writable="true"><hash value="x"/></memory></provides></component>`)

	_, err := component.ClearWritableHashes(in, in, nil)
	require.NoError(t, err)

	got, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Contains(t, string(got), `<hash value="none"/>`)
}

func TestClearWritableHashes_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	out := filepath.Join(t.TempDir(), "out.xml")

	_, err := component.ClearWritableHashes("testdata/sl.xml", out, &component.Options{Logger: zap.New(core)})
	require.NoError(t, err)

	cleared := logs.FilterMessage("clearing hash").All()
	require.Len(t, cleared, 2)
	assert.Equal(t, "data", cleared[0].ContextMap()["region"])
	assert.Equal(t, "bss", cleared[1].ContextMap()["region"])
	assert.Equal(t, 1, logs.FilterMessage("wrote adjusted component description").Len())
}

func TestClearWritableHashesBytes(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantRegions []string
		wantOutput  []string
		wantSame    []string
	}{
		{
			name: "writable true only",
			input: `<component><provides>` +
				`<memory logical="a" writable="true"><hash value="1"/></memory>` +
				`<memory logical="b" writable="false"><hash value="2"/></memory>` +
				`<memory logical="c" writable="TRUE"><hash value="3"/></memory>` +
				`<memory logical="d"><hash value="4"/></memory>` +
				`</provides></component>`,
			wantRegions: []string{"a"},
			wantOutput:  []string{`<hash value="none"/>`},
			wantSame:    []string{`<hash value="2"/>`, `<hash value="3"/>`, `<hash value="4"/>`},
		},
		{
			name: "multiple hashes in one region",
			input: `<component><provides><memory logical="x" writable="true">` +
				`<hash value="1"/><hash value="2"/></memory></provides></component>`,
			wantRegions: []string{"x", "x"},
		},
		{
			name: "memory outside provides is ignored",
			input: `<component><requires><memory logical="r" writable="true"><hash value="1"/></memory></requires>` +
				`<provides><memory logical="p" writable="true"><hash value="2"/></memory></provides></component>`,
			wantRegions: []string{"p"},
			wantSame:    []string{`<hash value="1"/>`},
		},
		{
			name:  "other root element",
			input: `<system><provides><memory logical="p" writable="true"><hash value="2"/></memory></provides></system>`,
		},
		{
			name: "other attributes of the hash survive",
			input: `<component><provides><memory logical="m" writable="true">` +
				`<hash algo="sha256" value="ff" note="a&amp;b"/></memory></provides></component>`,
			wantRegions: []string{"m"},
			wantOutput:  []string{`<hash algo="sha256" value="none" note="a&amp;b"/>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report, err := component.ClearWritableHashesBytes([]byte(tt.input), nil)
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantRegions), report.Cleared)
			if diff := cmp.Diff(tt.wantRegions, report.Regions); diff != "" {
				t.Errorf("regions mismatch (-want +got):\n%s", diff)
			}
			if len(tt.wantRegions) == 0 {
				assert.Nil(t, out)
				return
			}
			assert.Equal(t, len(tt.wantRegions), strings.Count(string(out), `value="none"`))
			for _, want := range tt.wantOutput {
				assert.Contains(t, string(out), want)
			}
			for _, want := range tt.wantSame {
				assert.Contains(t, string(out), want)
			}
		})
	}
}

func TestClearWritableHashesBytes_Malformed(t *testing.T) {
	_, _, err := component.ClearWritableHashesBytes([]byte(`<component><provides></component>`), nil)
	require.ErrorIs(t, err, component.ErrParse)
}

func TestClearWritableHashes_LoggingNoMatch(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	_, err := component.ClearWritableHashes("testdata/readonly.xml", filepath.Join(t.TempDir(), "out.xml"),
		&component.Options{Logger: zap.New(core)})
	require.NoError(t, err)

	entries := logs.FilterMessage("no writable memory region").All()
	require.Len(t, entries, 1)
	assert.Equal(t, component.WritableHashQuery, entries[0].ContextMap()["query"])
}
