package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `[backend]
provider = "aws"

[aws]
region = "eu-west-1"
profile = "staging"

[files.app]
path = ".env"
secret = "staging/app/env"

[files.app.metadata]
description = "App environment"

[files.app.metadata.tags]
team = "platform"

[files.worker]
path = "worker/.env"
secret = "staging/worker/env"
codec = "dotenv"
`

const sampleYAML = `backend:
  provider: aws
aws:
  region: eu-west-1
  profile: staging
files:
  app:
    path: .env
    secret: staging/app/env
    metadata:
      description: App environment
      tags:
        team: platform
  worker:
    path: worker/.env
    secret: staging/worker/env
    codec: dotenv
`

const sampleJSON = `{
  "backend": {"provider": "aws"},
  "aws": {"region": "eu-west-1", "profile": "staging"},
  "files": {
    "app": {
      "path": ".env",
      "secret": "staging/app/env",
      "metadata": {"description": "App environment", "tags": {"team": "platform"}}
    },
    "worker": {"path": "worker/.env", "secret": "staging/worker/env", "codec": "dotenv"}
  }
}`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AllFormatsEquivalent(t *testing.T) {
	dir := t.TempDir()

	manifests := map[string]string{
		"secret-sync.toml": sampleTOML,
		"secret-sync.yaml": sampleYAML,
		"secret-sync.json": sampleJSON,
	}

	var loaded []*Manifest
	for name, content := range manifests {
		sub := filepath.Join(dir, name+".d")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		m, err := Load(writeManifest(t, sub, name, content))
		require.NoError(t, err, name)
		loaded = append(loaded, m)
	}

	for _, m := range loaded {
		assert.Equal(t, "aws", m.Provider())
		assert.Equal(t, "eu-west-1", m.AWS.Region)
		assert.Equal(t, "staging", m.AWS.Profile)
		assert.Equal(t, []string{"app", "worker"}, m.EntryKeys())
		assert.Equal(t, "App environment", m.Files["app"].Metadata.Description)
		assert.Equal(t, map[string]string{"team": "platform"}, m.Files["app"].Metadata.Tags)
		assert.Equal(t, "staging/worker/env", m.Files["worker"].Secret)
	}
}

func TestLoad_DefaultsProviderToAWS(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(writeManifest(t, dir, "secret-sync.toml", `[files.a]
path = ".env"
secret = "s"
`))
	require.NoError(t, err)
	assert.Equal(t, ProviderAWS, m.Provider())
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "[backend]\nprovider = \"vault\"\n"},
		{"entry missing secret", "[files.a]\npath = \".env\"\n"},
		{"entry missing path", "[files.a]\nsecret = \"s\"\n"},
		{"unknown codec", "[files.a]\npath = \".env\"\nsecret = \"s\"\ncodec = \"xml\"\n"},
		{"unknown top-level key", "unknown = true\n"},
		{"partial credentials", "[aws.credentials]\naccess_key_id = \"AKIA\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Load(writeManifest(t, dir, "secret-sync.toml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}

func TestLoad_ParseFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeManifest(t, dir, "secret-sync.toml", "not [ valid toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TOML syntax")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "secret-sync.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest file not found")
}

func TestManifest_ResolvePath(t *testing.T) {
	m := &Manifest{Dir: "/work/project"}

	rel := m.ResolvePath(FileEntry{Path: "svc/.env"})
	assert.Equal(t, filepath.Join("/work/project", "svc", ".env"), rel)

	abs := m.ResolvePath(FileEntry{Path: "/etc/app/.env"})
	assert.Equal(t, "/etc/app/.env", abs)
}

func TestManifest_SelectEntries(t *testing.T) {
	m := &Manifest{Files: map[string]FileEntry{
		"app-web":    {},
		"app-worker": {},
		"infra":      {},
	}}

	all, err := m.SelectEntries(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app-web", "app-worker", "infra"}, all)

	byName, err := m.SelectEntries([]string{"infra"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"infra"}, byName)

	byGlob, err := m.SelectEntries(nil, []string{"app-*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-web", "app-worker"}, byGlob)

	both, err := m.SelectEntries([]string{"infra"}, []string{"app-w*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-web", "app-worker", "infra"}, both)

	_, err = m.SelectEntries([]string{"nope"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manifest entries match")

	_, err = m.SelectEntries(nil, []string{"[bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob pattern")
}

func TestDiscover_WalksParents(t *testing.T) {
	root := t.TempDir()
	manifestPath := writeManifest(t, root, "secret-sync.toml", sampleTOML)

	nested := filepath.Join(root, "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, manifestPath, found)
}

func TestDiscover_PrefersNearest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "secret-sync.toml", sampleTOML)

	nested := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	nearest := writeManifest(t, nested, "secret-sync.yaml", sampleYAML)

	found, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, nearest, found)
}

func TestDiscover_NotFound(t *testing.T) {
	_, err := Discover(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestAWSCredentials_Redacted(t *testing.T) {
	creds := AWSCredentials{AccessKeyID: "AKIAEXAMPLE", AccessKeySecret: "supersecret"}

	for _, rendered := range []string{
		fmt.Sprintf("%s", creds),
		fmt.Sprintf("%v", creds),
		fmt.Sprintf("%#v", creds),
	} {
		assert.NotContains(t, rendered, "AKIAEXAMPLE")
		assert.NotContains(t, rendered, "supersecret")
	}
}
