package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
)

func (s *session) interfaces(task map[string]json.RawMessage) (domain.InterfaceConfiguration, error) {
	cfg := domain.InterfaceConfiguration{
		Maps:    map[domain.InterfaceType]domain.KeyMap{},
		TCPPort: domain.DefaultTCPPort,
	}

	raw, ok := task["Interfaces"]
	if !ok || isNull(raw) {
		return cfg, fatal("", "Task has no Interfaces array")
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return cfg, fatal("Interfaces", "%w", err)
	}

	for i, entry := range entries {
		where := fmt.Sprintf("Interfaces[%d]", i)
		var iface interfaceEntry
		if err := decode(entry, &iface); err != nil {
			return cfg, fatal(where, "%w", err)
		}
		t, ok := domain.ParseInterfaceType(iface.InterfaceType)
		if !ok {
			s.logger.Warn("ignoring unknown interface", "index", i, "type", iface.InterfaceType)
			continue
		}
		if len(iface.KeyMap) != 2 {
			return cfg, fatal(where, "%s KeyMap must hold a keys array and a commands array", t)
		}
		keyMap, err := domain.NewKeyMap(iface.KeyMap[0], iface.KeyMap[1])
		if err != nil {
			return cfg, fatal(where, "%s: %w", t, err)
		}
		cfg.Maps[t] = keyMap
		if t == domain.InterfaceTCP && iface.Port != 0 {
			if iface.Port < 0 || iface.Port > 65535 {
				return cfg, fatal(where, "TCP port %d out of range", iface.Port)
			}
			cfg.TCPPort = iface.Port
		}
	}

	if len(cfg.Maps) == 0 {
		return cfg, fatal("Interfaces", "no interface present")
	}

	raw, ok = task["InterfaceMaster"]
	if !ok || isNull(raw) {
		return cfg, fatal("", "Task has no InterfaceMaster")
	}
	var master string
	if err := json.Unmarshal(raw, &master); err != nil {
		return cfg, fatal("InterfaceMaster", "%w", err)
	}
	t, ok := domain.ParseInterfaceType(master)
	if !ok {
		return cfg, fatal("InterfaceMaster", "unknown interface %q", master)
	}
	if !cfg.Present(t) {
		return cfg, fatal("InterfaceMaster", "%s is master but has no KeyMap", t)
	}
	cfg.Master = t

	return cfg, nil
}
