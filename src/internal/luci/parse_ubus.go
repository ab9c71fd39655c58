package luci

import (
	"strings"
)

// ParseUbusBatch normalizes the replies to StatusCalls into a snapshot.
//
// Replies are matched by position. A missing, short or malformed reply drops
// the metrics derived from it and never fails the whole batch.
func ParseUbusBatch(replies []UbusResponse) *Snapshot {
	snap := newSnapshot()

	payload := func(idx int) (map[string]any, bool) {
		if idx >= len(replies) {
			return nil, false
		}
		raw, ok := replies[idx].Payload()
		if !ok {
			return nil, false
		}
		return decodeObject(raw)
	}

	if info, ok := payload(idxSystemInfo); ok {
		parseSystemInfo(snap.Values, info)
	}
	if board, ok := payload(idxSystemBoard); ok {
		snap.Identity = parseBoard(board)
	}
	if idxCPUUsage < len(replies) {
		if v, ok := cpuUsageValue(replies[idxCPUUsage]); ok {
			snap.Values[KeyCPU] = NormalizeCPU(v)
		}
	}

	temp, haveTemp := 0.0, false
	if info, ok := payload(idxTempInfo); ok {
		temp, haveTemp = asFloat(info["cputemp"])
	}
	if !haveTemp || temp == 0 {
		if file, ok := payload(idxThermalZone); ok {
			if data, ok := asString(file["data"]); ok {
				temp, haveTemp = MillidegreesToCelsius(data)
			}
		}
	}
	if haveTemp && temp != 0 {
		snap.Values[KeyCPUTemp] = temp
	}

	if users, ok := payload(idxOnlineUsers); ok {
		if v, ok := countValue(users["onlineusers"]); ok {
			snap.Values[KeyUserOnline] = v
		}
	}
	if dump, ok := payload(idxInterfaceDump); ok {
		snap.Interfaces = parseInterfaceDump(snap.Values, dump)
	}
	if file, ok := payload(idxConnCount); ok {
		if v, ok := asInt64(file["data"]); ok {
			snap.Values[KeyConnCount] = v
		}
	}

	return snap
}

func parseSystemInfo(values Metrics, info map[string]any) {
	if uptime, ok := asInt64(info["uptime"]); ok {
		values[KeyUptime] = uptime
	}
	if mem, ok := asObject(info["memory"]); ok {
		total, okTotal := asFloat(mem["total"])
		free, okFree := asFloat(mem["free"])
		if okTotal && okFree {
			if pct, ok := MemoryPercent(total, free); ok {
				values[KeyMemory] = pct
			}
		}
	}
}

// ParseBoard extracts the identity from a system board payload.
func ParseBoard(raw []byte) DeviceIdentity {
	board, ok := decodeObject(raw)
	if !ok {
		return DeviceIdentity{}.WithDefaults()
	}
	return parseBoard(board)
}

func parseBoard(board map[string]any) DeviceIdentity {
	var id DeviceIdentity
	id.Name, _ = asString(board["hostname"])
	id.Model, _ = asString(board["model"])
	if release, ok := asObject(board["release"]); ok {
		if desc, ok := asString(release["description"]); ok && desc != "" {
			id.SWVersion = desc
		} else {
			id.SWVersion, _ = asString(release["version"])
		}
	}
	return id.WithDefaults()
}

// cpuUsageValue accepts [status, {"cpuusage": v}] or [status, v].
// A shorter result is an rpcd status code, not a reading.
func cpuUsageValue(r UbusResponse) (any, bool) {
	result, ok := decodeAny(r.Result)
	if !ok {
		return nil, false
	}
	arr, ok := asArray(result)
	if !ok || len(arr) < 2 || arr[1] == nil {
		return nil, false
	}
	item := arr[1]
	if obj, ok := asObject(item); ok {
		v, present := obj["cpuusage"]
		return v, present && v != nil
	}
	return item, true
}

func parseInterfaceDump(values Metrics, dump map[string]any) []string {
	list, ok := asArray(dump["interface"])
	if !ok {
		return nil
	}

	names := []string{}
	for _, entry := range list {
		iface, ok := asObject(entry)
		if !ok {
			continue
		}
		name, _ := asString(iface["interface"])
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || name == "loopback" {
			continue
		}
		names = append(names, name)

		if addr, ok := firstAddress(iface["ipv4-address"]); ok {
			values[InterfaceKey(name, SuffixIP)] = addr
		}
		if addr, ok := firstAddress(iface["ipv6-address"]); ok {
			values[InterfaceKey(name, SuffixIPv6)] = addr
		}
		if uptime, ok := asInt64(iface["uptime"]); ok {
			values[InterfaceKey(name, SuffixUptime)] = uptime
		}
	}
	return names
}

func firstAddress(v any) (string, bool) {
	list, ok := asArray(v)
	if !ok || len(list) == 0 {
		return "", false
	}
	entry, ok := asObject(list[0])
	if !ok {
		return "", false
	}
	addr, ok := asString(entry["address"])
	return addr, ok && addr != ""
}
