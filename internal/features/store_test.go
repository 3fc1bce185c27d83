package features

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", DefaultFileName)
	s, err := NewStore(path, opts...)
	require.NoError(t, err)
	return s
}

func readPersisted(t *testing.T, path string) map[string]map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func alphaDefaults() Set {
	return Set{"alpha": {Name: "Alpha", Enabled: true}}
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestGetAll_MissingFileCreatesDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := os.Stat(s.Path())
	require.True(t, os.IsNotExist(err))

	got := s.GetAll(ctx)
	assert.Equal(t, DefaultFlags(), got)

	persisted := readPersisted(t, s.Path())
	assert.Len(t, persisted, len(DefaultFlags()))
	for k, f := range DefaultFlags() {
		require.Contains(t, persisted, k)
		assert.Equal(t, f.Name, persisted[k]["name"])
		assert.Equal(t, f.Enabled, persisted[k]["enabled"])
	}
}

func TestSet_RoundTripForEveryKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for key := range DefaultFlags() {
		for _, enabled := range []bool{false, true, false} {
			ok, err := s.Set(ctx, key, enabled)
			require.NoError(t, err)
			require.True(t, ok)

			got := s.GetAll(ctx)
			assert.Equal(t, enabled, got[key].Enabled, "key %s", key)
			assert.Equal(t, DefaultFlags()[key].Name, got[key].Name)
		}
	}
}

func TestSet_PreservesOtherKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Set(ctx, KeyCloudSecurity, false)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Set(ctx, KeyRansomware, false)
	require.NoError(t, err)
	require.True(t, ok)

	got := s.GetAll(ctx)
	assert.False(t, got[KeyCloudSecurity].Enabled)
	assert.False(t, got[KeyRansomware].Enabled)
	assert.True(t, got[KeyNetworkDefense].Enabled)
	assert.True(t, got[KeyEndpointProtection].Enabled)
}

func TestSet_UnknownKeyLeavesFileUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Set(ctx, KeyNetworkDefense, false)
	require.NoError(t, err)
	require.True(t, ok)

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	ok, err = s.Set(ctx, "does_not_exist", true)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.NotContains(t, s.GetAll(ctx), "does_not_exist")
}

func TestGetAll_DropsDeprecatedKeysAndRewritesFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := `{
  "admin_console": {"name": "Consola de administración centralizada", "enabled": true},
  "legacy_scanner": {"name": "Legacy", "enabled": false},
  "ransomware": {"name": "Protección multicapa contra ransomware", "enabled": false}
}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))

	got := s.GetAll(ctx)
	assert.NotContains(t, got, KeyAdminConsole)
	assert.NotContains(t, got, "legacy_scanner")
	assert.False(t, got[KeyRansomware].Enabled)
	assert.Len(t, got, len(DefaultFlags()))

	persisted := readPersisted(t, s.Path())
	assert.NotContains(t, persisted, KeyAdminConsole)
	assert.NotContains(t, persisted, "legacy_scanner")
	assert.Equal(t, false, persisted[KeyRansomware]["enabled"])
}

func TestGetAll_PartialEntryMergesOntoDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"network_defense": {"enabled": false}}`), 0o644))

	got := s.GetAll(ctx)
	assert.Equal(t, DefaultFlags()[KeyNetworkDefense].Name, got[KeyNetworkDefense].Name)
	assert.False(t, got[KeyNetworkDefense].Enabled)
	assert.True(t, got[KeyRansomware].Enabled)
}

func TestGetAll_EmptyNameFallsBackToDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"cloud_security": {"name": "", "enabled": false}}`), 0o644))

	got := s.GetAll(ctx)
	assert.Equal(t, DefaultFlags()[KeyCloudSecurity].Name, got[KeyCloudSecurity].Name)
	assert.False(t, got[KeyCloudSecurity].Enabled)
}

func TestGetAll_PersistedNameOverridesDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"cloud_security": {"name": "Cloud"}}`), 0o644))

	got := s.GetAll(ctx)
	assert.Equal(t, "Cloud", got[KeyCloudSecurity].Name)
	assert.True(t, got[KeyCloudSecurity].Enabled)
}

func TestGetAll_CoercesEnabled(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		enabled bool
	}{
		{name: "string false", value: `"false"`, enabled: false},
		{name: "string true", value: `"true"`, enabled: true},
		{name: "zero", value: `0`, enabled: false},
		{name: "one", value: `1`, enabled: true},
		{name: "null keeps default", value: `null`, enabled: true},
		{name: "garbage keeps default", value: `"maybe"`, enabled: true},
		{name: "object keeps default", value: `{}`, enabled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			content := fmt.Sprintf(`{"ransomware": {"enabled": %s}}`, tt.value)
			require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))

			got := s.GetAll(context.Background())
			assert.Equal(t, tt.enabled, got[KeyRansomware].Enabled)
		})
	}
}

func TestGetAll_MalformedFileFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `{"ransomware": {"name": "x", "enab`},
		{name: "invalid syntax", content: `not json at all`},
		{name: "array", content: `[1, 2, 3]`},
		{name: "null", content: `null`},
		{name: "empty", content: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o644))

			got := s.GetAll(context.Background())
			assert.Equal(t, DefaultFlags(), got)

			// storage is not repaired on the read path
			data, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestGetAll_NonObjectEntryIsIgnored(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"ransomware": false, "cloud_security": {"enabled": false}}`), 0o644))

	got := s.GetAll(context.Background())
	assert.True(t, got[KeyRansomware].Enabled)
	assert.False(t, got[KeyCloudSecurity].Enabled)
}

func TestStore_ConcreteScenario(t *testing.T) {
	s := newTestStore(t, WithDefaults(alphaDefaults()))
	ctx := context.Background()

	ok, err := s.Set(ctx, "alpha", false)
	require.NoError(t, err)
	assert.True(t, ok)

	want := Set{"alpha": {Key: "alpha", Name: "Alpha", Enabled: false}}
	assert.Equal(t, want, s.GetAll(ctx))

	ok, err = s.Set(ctx, "missing", true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, want, s.GetAll(ctx))
}

func TestStore_ConcurrentSetSameKey(t *testing.T) {
	s := newTestStore(t, WithDefaults(Set{
		"alpha": {Name: "Alpha", Enabled: true},
		"beta":  {Name: "Beta", Enabled: true},
	}))
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, enabled := range []bool{true, false} {
		wg.Add(1)
		go func(enabled bool) {
			defer wg.Done()
			ok, err := s.Set(ctx, "alpha", enabled)
			assert.NoError(t, err)
			assert.True(t, ok)
		}(enabled)
	}
	wg.Wait()

	got := s.GetAll(ctx)
	assert.Contains(t, []bool{true, false}, got["alpha"].Enabled)
	assert.Equal(t, Flag{Key: "beta", Name: "Beta", Enabled: true}, got["beta"])

	// the file is complete and parseable after the race
	persisted := readPersisted(t, s.Path())
	assert.Len(t, persisted, 2)
	assert.Equal(t, got["alpha"].Enabled, persisted["alpha"]["enabled"])
}

func TestStore_ConcurrentSetDifferentKeysLosesNothing(t *testing.T) {
	defaults := Set{}
	for i := 0; i < 16; i++ {
		key := fmt.Sprintf("flag_%02d", i)
		defaults[key] = Flag{Name: key, Enabled: true}
	}
	s := newTestStore(t, WithDefaults(defaults))
	ctx := context.Background()

	var wg sync.WaitGroup
	for key := range defaults {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			ok, err := s.Set(ctx, key, false)
			assert.NoError(t, err)
			assert.True(t, ok)
		}(key)
	}
	wg.Wait()

	for key, f := range s.GetAll(ctx) {
		assert.False(t, f.Enabled, "update to %s was lost", key)
	}
}

func TestStore_TwoStoresShareFileSafely(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	defaults := Set{
		"alpha": {Name: "Alpha", Enabled: true},
		"beta":  {Name: "Beta", Enabled: true},
	}
	a, err := NewStore(path, WithDefaults(defaults))
	require.NoError(t, err)
	b, err := NewStore(path, WithDefaults(defaults))
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := a.Set(ctx, "alpha", false)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := b.Set(ctx, "beta", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := a.GetAll(ctx)
	assert.False(t, got["alpha"].Enabled)
	assert.False(t, got["beta"].Enabled)
}

func TestSet_WriteFailureIsReported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.GetAll(ctx)

	// a directory in place of the temp file makes the write fail
	require.NoError(t, os.Mkdir(s.Path()+".tmp", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Path()+".tmp", "keep"), nil, 0o644))

	ok, err := s.Set(ctx, KeyRansomware, false)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.True(t, s.GetAll(ctx)[KeyRansomware].Enabled)
}

func TestStore_ObserverReceivesMergedSet(t *testing.T) {
	var seen []Set
	s := newTestStore(t, WithObserver(func(set Set) {
		seen = append(seen, set)
	}))
	ctx := context.Background()

	s.GetAll(ctx)
	_, err := s.Set(ctx, KeyRansomware, false)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.True(t, seen[0][KeyRansomware].Enabled)
	assert.False(t, seen[1][KeyRansomware].Enabled)
}

func TestStore_EnabledAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.True(t, s.Enabled(ctx, KeyEndpointProtection))
	_, err := s.Set(ctx, KeyEndpointProtection, false)
	require.NoError(t, err)
	assert.False(t, s.Enabled(ctx, KeyEndpointProtection))
	assert.False(t, s.Enabled(ctx, "unknown"))

	f, ok := s.Get(ctx, KeyEndpointProtection)
	assert.True(t, ok)
	assert.Equal(t, KeyEndpointProtection, f.Key)
}

func TestMigrate_Idempotent(t *testing.T) {
	raw := map[string]json.RawMessage{
		KeyAdminConsole: json.RawMessage(`{"enabled": true}`),
		KeyRansomware:   json.RawMessage(`{"enabled": false}`),
	}
	cleaned, dropped := Migrate(raw, DefaultFlags())
	assert.Equal(t, []string{KeyAdminConsole}, dropped)
	assert.Len(t, cleaned, 1)

	again, dropped := Migrate(cleaned, DefaultFlags())
	assert.Empty(t, dropped)
	assert.Equal(t, cleaned, again)
}

func TestSet_Keys(t *testing.T) {
	set := DefaultFlags()
	set["zeta"] = Flag{Name: "Zeta"}
	set["aardvark"] = Flag{Name: "Aardvark"}
	assert.Equal(t, []string{
		KeyRansomware,
		KeyNetworkDefense,
		KeyEndpointProtection,
		KeyCloudSecurity,
		"aardvark",
		"zeta",
	}, set.Keys())
}
