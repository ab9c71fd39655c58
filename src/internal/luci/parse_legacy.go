package luci

import (
	"regexp"
	"strings"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

var legacyTempRegexp = regexp.MustCompile(`\+(-?[0-9]+(?:\.[0-9]+)?)\s*°C`)

// Identity patterns, tried in order. They cover the stock bootstrap theme
// and the Chinese-localized firmwares that still ship the legacy UI.
var (
	overviewNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`<meta name="application-name" content="(.+?) - LuCI`),
		regexp.MustCompile(`<title>(.+?) - .*?LuCI</title>`),
	}
	overviewModelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Model</td>\s*<td[^>]*>(.+?)</td>`),
		regexp.MustCompile(`型号</td>\s*<td[^>]*>(.+?)</td>`),
		regexp.MustCompile(`固件版本</td>\s*<td[^>]*>(.+?)</td>`),
		regexp.MustCompile(`(?i)Firmware Version</td>\s*<td[^>]*>(.+?)</td>`),
	}
	overviewKernelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`内核版本</td>\s*<td[^>]*>(.+?)</td>`),
		regexp.MustCompile(`(?i)Kernel Version</td>\s*<td[^>]*>(.+?)</td>`),
	}

	htmlTagRegexp = regexp.MustCompile(`<[^>]*>`)
)

// ParseLegacyStatus normalizes the JSON served by the legacy status poll.
// The body must be JSON; individual fields are optional.
func ParseLegacyStatus(body []byte) (*Snapshot, error) {
	status, ok := decodeObject(body)
	if !ok {
		return nil, errors.NewParseError("legacy status is not a JSON object", nil)
	}

	snap := newSnapshot()
	values := snap.Values

	for _, field := range []string{"cpuinfo", "cpuwd"} {
		s, ok := asString(status[field])
		if !ok {
			continue
		}
		if m := legacyTempRegexp.FindStringSubmatch(s); m != nil {
			if t, ok := asFloat(m[1]); ok {
				values[KeyCPUTemp] = t
				break
			}
		}
	}

	if uptime, ok := asInt64(status["uptime"]); ok {
		values[KeyUptime] = uptime
	}
	if v, present := status["cpuusage"]; present && v != nil {
		values[KeyCPU] = NormalizeCPU(v)
	}
	if mem, ok := asObject(status["memory"]); ok {
		total, okTotal := asFloat(mem["total"])
		available, okAvail := asFloat(mem["available"])
		if okTotal && okAvail {
			if pct, ok := MemoryPercent(total, available); ok {
				values[KeyMemory] = pct
			}
		}
	}
	if v, ok := asInt64(status["conncount"]); ok {
		values[KeyConnCount] = v
	}
	if v, ok := countValue(status["userinfo"]); ok {
		values[KeyUserOnline] = v
	}

	var names []string
	if wan, ok := asObject(status["wan"]); ok {
		names = append(names, "wan")
		if ip, ok := asString(wan["ipaddr"]); ok && ip != "" {
			values[InterfaceKey("wan", SuffixIP)] = ip
		}
		if uptime, ok := asInt64(wan["uptime"]); ok {
			values[InterfaceKey("wan", SuffixUptime)] = uptime
		}
	}
	if wan6, ok := asObject(status["wan6"]); ok {
		names = append(names, "wan6")
		if ip, ok := asString(wan6["ip6addr"]); ok && ip != "" {
			values[InterfaceKey("wan6", SuffixIPv6)] = ip
		}
		if uptime, ok := asInt64(wan6["uptime"]); ok {
			values[InterfaceKey("wan6", SuffixUptime)] = uptime
		}
	}
	snap.Interfaces = names

	return snap, nil
}

// ParseOverview scrapes the device identity from the legacy overview page.
// Every field falls back to its placeholder.
func ParseOverview(page string) DeviceIdentity {
	page = strings.NewReplacer("\r", "", "\n", "").Replace(page)

	id := DeviceIdentity{
		Name:      firstMatch(overviewNamePatterns, page),
		Model:     firstMatch(overviewModelPatterns, page),
		SWVersion: firstMatch(overviewKernelPatterns, page),
	}
	return id.WithDefaults()
}

func firstMatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(htmlTagRegexp.ReplaceAllString(m[1], ""))
		if v != "" {
			// Old localized builds serve GBK pages.
			return strings.ToValidUTF8(v, "\uFFFD")
		}
	}
	return ""
}
