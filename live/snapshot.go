package live

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot types capture the durable subset of the session mirror. Only
// coordinates, names and lengths persist; play state, loggers and the
// transport handle are runtime-only and get rebuilt on restore.

// SetSnapshot is the serializable form of a scanned set.
type SetSnapshot struct {
	Tempo  float64         `yaml:"tempo,omitempty"`
	Scenes int             `yaml:"scenes"`
	Tracks []TrackSnapshot `yaml:"tracks"`
}

// TrackSnapshot is the serializable form of one track. Members lists the
// indices of a group's member tracks.
type TrackSnapshot struct {
	Index   int            `yaml:"index"`
	Name    string         `yaml:"name"`
	Group   bool           `yaml:"group,omitempty"`
	Members []int          `yaml:"members,omitempty"`
	Clips   []ClipSnapshot `yaml:"clips,omitempty"`
}

// ClipSnapshot is the serializable form of one occupied clip slot.
type ClipSnapshot struct {
	Index  int     `yaml:"index"`
	Name   string  `yaml:"name,omitempty"`
	Length float64 `yaml:"length"`
}

// Snapshot captures the scanned graph. Tempo is fetched live when reachable
// and left zero otherwise, so snapshots still work offline from a prior scan.
func (s *Set) Snapshot() SetSnapshot {
	snap := SetSnapshot{Scenes: s.scenes}
	if tempo, err := s.Tempo(); err == nil {
		snap.Tempo = tempo
	}
	for _, tr := range s.tracks {
		ts := TrackSnapshot{
			Index: tr.index,
			Name:  tr.name,
			Group: tr.group,
		}
		for _, member := range tr.tracks {
			ts.Members = append(ts.Members, member.index)
		}
		for _, c := range tr.clips {
			if c == nil {
				continue
			}
			ts.Clips = append(ts.Clips, ClipSnapshot{
				Index:  c.index,
				Name:   c.name,
				Length: c.length,
			})
		}
		snap.Tracks = append(snap.Tracks, ts)
	}
	return snap
}

// Restore rebuilds the track graph from a snapshot. Every proxy is
// reconstructed on the set's transport; clip states reset to stopped.
func (s *Set) Restore(snap SetSnapshot) {
	byIndex := make(map[int]*Track, len(snap.Tracks))
	tracks := make([]*Track, 0, len(snap.Tracks))

	for _, ts := range snap.Tracks {
		var tr *Track
		if ts.Group {
			tr = NewGroup(s.t, ts.Index, ts.Name)
		} else {
			tr = NewTrack(s.t, ts.Index, ts.Name)
		}
		clips := make([]*Clip, snap.Scenes)
		for _, cs := range ts.Clips {
			if cs.Index < 0 {
				continue
			}
			if cs.Index >= len(clips) {
				grown := make([]*Clip, cs.Index+1)
				copy(grown, clips)
				clips = grown
			}
			clips[cs.Index] = NewClip(tr, cs.Index, cs.Name, cs.Length)
		}
		tr.SetClips(clips)
		byIndex[ts.Index] = tr
		tracks = append(tracks, tr)
	}

	// Second pass so members resolve regardless of track order in the file.
	for _, ts := range snap.Tracks {
		if !ts.Group {
			continue
		}
		head := byIndex[ts.Index]
		for _, mi := range ts.Members {
			if member, ok := byIndex[mi]; ok {
				head.AddMember(member)
			}
		}
	}

	s.tracks = tracks
	s.scenes = snap.Scenes
}

// Save writes the snapshot of the scanned graph to path as YAML.
func (s *Set) Save(path string) error {
	data, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.log.Infof("saved snapshot to %s", path)
	return nil
}

// LoadSet reads a snapshot from path and restores it onto a new Set bound to
// t.
func LoadSet(path string, t Transport) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap SetSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s := NewSet(t)
	s.Restore(snap)
	return s, nil
}
