package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeOverrides(t, `sites:
  - host: custom.example.com
    ingredient_selector: ".recipe-ing"
    instruction_selector: ".recipe-step"
  - host: other.org
    title_selector: "h1.headline"
`)

	o, err := Load(path)
	require.NoError(t, err)
	require.Len(t, o.Sites, 2)
	assert.Equal(t, "custom.example.com", o.Sites[0].Host)
	assert.Equal(t, ".recipe-ing", o.Sites[0].IngredientSelector)
	assert.Equal(t, "h1.headline", o.Sites[1].TitleSelector)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	o, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, o.Sites)
}

func TestLoad_EmptyPathIsEmpty(t *testing.T) {
	o, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, o.Sites)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeOverrides(t, "sites: [not closed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestForHost(t *testing.T) {
	o := &Overrides{Sites: []SiteOverride{
		{Host: "example.com", TitleSelector: "h1.main"},
		{Host: "blog.other.org", TitleSelector: "h2"},
	}}

	tests := []struct {
		host string
		want string
	}{
		{"example.com", "h1.main"},
		{"www.example.com", "h1.main"},
		{"EXAMPLE.COM", "h1.main"},
		{"blog.other.org", "h2"},
		{"notexample.com", ""},
		{"other.org", ""},
	}
	for _, tt := range tests {
		got := o.ForHost(tt.host)
		if tt.want == "" {
			assert.Nil(t, got, tt.host)
			continue
		}
		require.NotNil(t, got, tt.host)
		assert.Equal(t, tt.want, got.TitleSelector, tt.host)
	}
}

func TestForHost_NilReceiver(t *testing.T) {
	var o *Overrides
	assert.Nil(t, o.ForHost("example.com"))
}
