package migrate

import (
	"encoding/json"
	"testing"

	"github.com/PolarWolf314/cask/internal/codec"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v0doc = `{
	"data": {"email": "pw1", "bank": {"pin": "1234"}},
	"metadata": {"mhost": "old", "mtime": 1000.5, "mtzname": "EST"},
	"future": {"x": [1, 2]}
}`

func TestUpgradeFromV0(t *testing.T) {
	out, report, err := Upgrade([]byte(v0doc), codec.FormatVersion)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Version: 2, Updated: true}, {Version: 3, Updated: true}, {Version: 4, Updated: true}}, report)

	fs, err := codec.Decode(out, nil)
	require.NoError(t, err)

	h, err := fs.Lookup(fs.Root(), "bank/pin")
	require.NoError(t, err)
	assert.Equal(t, "1234", fs.Data(h))

	m, ok := fs.Meta(h)
	require.True(t, ok)
	assert.Equal(t, tree.Metadata{MTime: 0, TZName: UnknownTZ, Host: UnknownHost}, m)

	assert.Equal(t, tree.Metadata{MTime: 1000.5, TZName: "EST", Host: "old"}, fs.StoreMeta)
	assert.JSONEq(t, `{"x": [1, 2]}`, string(fs.Extra["future"]))
}

func TestUpgradeKeepsExistingMetadata(t *testing.T) {
	doc := `{
		"data": [{"a": ["v", {"mhost": "h", "mtime": 5, "mtzname": "UTC"}], "b": "bare"}, {"mhost": "r", "mtime": 6, "mtzname": "UTC"}],
		"metadata": {"mhost": "h", "mtime": 7, "mtzname": "UTC"}
	}`
	out, _, err := Upgrade([]byte(doc), codec.FormatVersion)
	require.NoError(t, err)

	fs, err := codec.Decode(out, nil)
	require.NoError(t, err)

	root, ok := fs.Meta(fs.Root())
	require.True(t, ok)
	assert.Equal(t, "r", root.Host)

	a, err := fs.Lookup(fs.Root(), "a")
	require.NoError(t, err)
	m, _ := fs.Meta(a)
	assert.Equal(t, float64(5), m.MTime)

	b, err := fs.Lookup(fs.Root(), "b")
	require.NoError(t, err)
	m, ok = fs.Meta(b)
	require.True(t, ok)
	assert.Equal(t, UnknownHost, m.Host)
}

func TestUpgradeToIntermediateVersion(t *testing.T) {
	out, report, err := Upgrade([]byte(v0doc), 2)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Version: 2, Updated: true}}, report)

	v, err := codec.PeekVersion(out)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	var doc struct {
		Data []any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Len(t, doc.Data, 2)

	// A second run finishes the job.
	out, report, err = Upgrade(out, codec.FormatVersion)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Version: 2, Updated: false}, {Version: 3, Updated: true}, {Version: 4, Updated: true}}, report)
	_, err = codec.Decode(out, nil)
	require.NoError(t, err)
}

func TestUpgradeToTypedNodes(t *testing.T) {
	doc := `{
		"data": [{"pin": ["1234", {"mhost": "h", "mtime": 5, "mtzname": "UTC"}]}, {"mhost": "r", "mtime": 6, "mtzname": "UTC"}],
		"metadata": {"format_version": 2, "mhost": "h", "mtime": 7, "mtzname": "UTC"}
	}`
	out, report, err := Upgrade([]byte(doc), 3)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Version: 2, Updated: false}, {Version: 3, Updated: true}}, report)

	var got struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, map[string]any{
		"type": "d", "mhost": "r", "mtime": float64(6), "mtzname": "UTC",
		"entries": map[string]any{
			"pin": map[string]any{"type": "f", "mhost": "h", "mtime": float64(5), "mtzname": "UTC", "data": "1234"},
		},
	}, got.Data)

	// Typed nodes are not readable until the final step has run.
	_, err = codec.Decode(out, nil)
	assert.ErrorIs(t, err, kerrors.ErrFormatVersion)
}

func TestUpgradeTypedNodesWithSymlink(t *testing.T) {
	doc := `{
		"data": {"type": "d", "mhost": "r", "mtime": 6, "mtzname": "UTC", "entries": {
			"web": {"type": "d", "mhost": "h", "mtime": 1, "mtzname": "UTC", "entries": {
				"login": {"type": "f", "mhost": "h", "mtime": 2, "mtzname": "UTC", "data": "hunter2"}
			}},
			"current": {"type": "l", "mhost": "h", "mtime": 3, "mtzname": "UTC", "target": "web/login"}
		}},
		"metadata": {"format_version": 3, "mhost": "h", "mtime": 7, "mtzname": "UTC"}
	}`
	out, report, err := Upgrade([]byte(doc), codec.FormatVersion)
	require.NoError(t, err)
	assert.Equal(t, []Step{{Version: 2, Updated: false}, {Version: 3, Updated: false}, {Version: 4, Updated: true}}, report)

	fs, err := codec.Decode(out, nil)
	require.NoError(t, err)

	link, err := fs.Lookup(fs.Root(), "current")
	require.NoError(t, err)
	assert.Equal(t, tree.KindSymlink, fs.Kind(link))
	assert.Equal(t, "web/login", fs.Target(link))
	m, ok := fs.Meta(link)
	require.True(t, ok)
	assert.Equal(t, float64(3), m.MTime)

	login, err := fs.Lookup(fs.Root(), "web/login")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", fs.Data(login))
}

func TestUpgradeRejectsMalformedTypedNodes(t *testing.T) {
	for _, node := range []string{
		`{"type": "x", "mhost": "h", "mtime": 1, "mtzname": "UTC", "data": "v"}`,
		`{"type": "f", "mhost": "h", "mtime": 1, "mtzname": "UTC"}`,
		`{"type": "f", "mhost": "h", "mtime": 1, "mtzname": "UTC", "data": "v", "entries": {}}`,
		`{"type": "l", "mhost": "h", "mtime": 1, "mtzname": "UTC", "target": 4}`,
		`["v", {"mhost": "h", "mtime": 1, "mtzname": "UTC"}]`,
	} {
		doc := `{"data": {"type": "d", "mhost": "h", "mtime": 1, "mtzname": "UTC", "entries": {"n": ` + node +
			`}}, "metadata": {"format_version": 3, "mhost": "h", "mtime": 1, "mtzname": "UTC"}}`
		_, _, err := Upgrade([]byte(doc), codec.FormatVersion)
		assert.ErrorIs(t, err, kerrors.ErrCorruptStore, node)
	}
}

func TestUpgradeCurrentIsNoop(t *testing.T) {
	fs := tree.New(nil)
	_, err := fs.CreateFile(fs.Root(), "f", "x")
	require.NoError(t, err)
	current, err := codec.Encode(fs)
	require.NoError(t, err)

	out, report, err := Upgrade(current, codec.FormatVersion)
	require.NoError(t, err)
	for _, s := range report {
		assert.False(t, s.Updated, s.String())
	}
	assert.Equal(t, string(current), string(out))
}

func TestUpgradeRejects(t *testing.T) {
	_, _, err := Upgrade([]byte(v0doc), 1)
	assert.ErrorIs(t, err, kerrors.ErrUsage)

	_, _, err = Upgrade([]byte(v0doc), codec.FormatVersion+1)
	assert.ErrorIs(t, err, kerrors.ErrUsage)

	newer := `{"data": {}, "metadata": {"format_version": 9, "mhost": "h", "mtime": 0, "mtzname": "UTC"}}`
	_, _, err = Upgrade([]byte(newer), codec.FormatVersion)
	assert.ErrorIs(t, err, kerrors.ErrFormatVersion)

	bad := `{"data": {"f": ["x", {"mhost": "h"}]}, "metadata": {}}`
	_, _, err = Upgrade([]byte(bad), codec.FormatVersion)
	assert.ErrorIs(t, err, kerrors.ErrCorruptStore)

	_, _, err = Upgrade([]byte(`{"metadata": {}}`), codec.FormatVersion)
	assert.ErrorIs(t, err, kerrors.ErrCorruptStore)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "Updated to version 2", Step{Version: 2, Updated: true}.String())
	assert.Equal(t, "No update necessary for version 3", Step{Version: 3}.String())
}
