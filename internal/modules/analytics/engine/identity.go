package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ViewerGroup is every row that resolved to one identity key, in input order.
type ViewerGroup struct {
	Key  string
	Logs []AccessLog
}

// ResolveViewerKey derives the identity key for one row: email, then IP,
// then session id. Rows with none of those get a synthetic key hashed from
// stable fields, so two anonymous rows never merge but the same row always
// resolves to the same key regardless of its position in the batch.
func ResolveViewerKey(l AccessLog) string {
	if email := strings.ToLower(strings.TrimSpace(l.ViewerEmail)); email != "" {
		return email
	}
	if ip := strings.TrimSpace(l.IPAddress); ip != "" {
		return ip
	}
	if sid := strings.TrimSpace(l.SessionID); sid != "" {
		return sid
	}
	return "anon-" + syntheticKey(l)
}

func syntheticKey(l AccessLog) string {
	h := xxhash.New()
	_, _ = h.WriteString(strconv.FormatInt(l.AccessedAt.UnixNano(), 10))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(l.Browser)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(l.OS)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(l.DeviceType)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(l.Country)
	return fmt.Sprintf("%016x", h.Sum64())
}

// GroupByViewer folds rows into per-viewer groups. Group order follows the
// first appearance of each key, so the same batch always groups identically.
func GroupByViewer(logs []AccessLog) []ViewerGroup {
	index := make(map[string]int, len(logs))
	groups := make([]ViewerGroup, 0, len(logs))
	for _, l := range logs {
		key := ResolveViewerKey(l)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ViewerGroup{Key: key})
		}
		groups[i].Logs = append(groups[i].Logs, l)
	}
	return groups
}
