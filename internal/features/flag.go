package features

import "sort"

const (
	KeyRansomware         = "ransomware"
	KeyNetworkDefense     = "network_defense"
	KeyEndpointProtection = "endpoint_protection"
	KeyCloudSecurity      = "cloud_security"

	// KeyAdminConsole was removed because the console must always be enabled.
	KeyAdminConsole = "admin_console"
)

// Flag is a named boolean toggle for a platform capability.
type Flag struct {
	Key     string `json:"-"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Set maps a flag key to its flag.
type Set map[string]Flag

// Clone returns a copy of the set that shares no state with s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, f := range s {
		out[k] = f
	}
	return out
}

// Keys returns the flag keys in default display order first, then any others sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, k := range defaultOrder {
		if _, ok := s[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range s {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

var defaultOrder = []string{
	KeyRansomware,
	KeyNetworkDefense,
	KeyEndpointProtection,
	KeyCloudSecurity,
}

// DefaultFlags returns the system defined feature flags.
func DefaultFlags() Set {
	return Set{
		KeyRansomware: {
			Key:     KeyRansomware,
			Name:    "Protección multicapa contra ransomware",
			Enabled: true,
		},
		KeyNetworkDefense: {
			Key:     KeyNetworkDefense,
			Name:    "Defensa ante ataques de red",
			Enabled: true,
		},
		KeyEndpointProtection: {
			Key:     KeyEndpointProtection,
			Name:    "Protección de endpoints en tiempo real",
			Enabled: true,
		},
		KeyCloudSecurity: {
			Key:     KeyCloudSecurity,
			Name:    "Seguridad basada en la nube",
			Enabled: true,
		},
	}
}
