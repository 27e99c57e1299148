//go:build windows

package interp

import (
	"golang.org/x/sys/windows/registry"
)

// SystemRegistry returns the Windows registry reader.
func SystemRegistry() Registry { return winRegistry{} }

type winRegistry struct{}

func (winRegistry) InstallPaths(root Root) []string {
	hive := registry.CURRENT_USER
	if root == LocalMachine {
		hive = registry.LOCAL_MACHINE
	}

	var out []string
	for _, key := range registryKeys {
		out = append(out, readInstallPaths(hive, key)...)
		if len(out) > 0 {
			return out
		}
	}
	return out
}

func readInstallPaths(hive registry.Key, path string) []string {
	k, err := registry.OpenKey(hive, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil
	}
	defer k.Close()

	versions, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}

	var out []string
	for _, version := range versions {
		ik, err := registry.OpenKey(hive, path+`\`+version+`\InstallPath`, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		value, _, err := ik.GetStringValue("")
		ik.Close()
		if err != nil || value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
