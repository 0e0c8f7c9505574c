package source

import (
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

// Build returns one fetcher per source, in insight.AllSources order.
// Sources listed in files read from that path; the rest serve placeholder
// records. Sources not in enabled are omitted; a nil enabled means all.
func Build(enabled []insight.Source, files map[insight.Source]string) []Fetcher {
	on := make(map[insight.Source]bool, len(enabled))
	for _, s := range enabled {
		on[s] = true
	}

	var fetchers []Fetcher
	for _, s := range insight.AllSources {
		if enabled != nil && !on[s] {
			continue
		}
		if path := files[s]; path != "" {
			fetchers = append(fetchers, File{Source: s, Path: path})
			continue
		}
		fetchers = append(fetchers, Placeholder{Source: s})
	}
	return fetchers
}
