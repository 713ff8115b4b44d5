package game

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pg9182/gbx"
)

// ReplayRecord is a replay (CGameCtnReplayRecord). Replays are read-only.
type ReplayRecord struct{ gbx.NodeBase }

func (*ReplayRecord) ClassID() gbx.ClassID { return ClassReplayRecord }

var replayRecordClass = gbx.ClassDesc{
	ID:               ClassReplayRecord,
	Name:             "CGameCtnReplayRecord",
	Parent:           ClassNod,
	New:              func() gbx.Node { return new(ReplayRecord) },
	WriteUnsupported: true,
	Chunks: []gbx.ChunkDesc{
		{ID: 0x03093000, Name: "Desc", New: mk[ReplayDesc](), Skippable: true, Eager: true, Header: true},
		{ID: 0x03093002, Name: "Map", New: mk[ReplayMap](), Skippable: true, Eager: true},
		{ID: 0x03093014, Name: "Ghosts", New: mk[ReplayGhosts]()},
	},
}

// Map parses the map the replay was recorded on, which is embedded as a whole
// GBX file.
func (x *ReplayRecord) Map(opts *gbx.Options) (*gbx.File, error) {
	c, ok := gbx.Typed[*ReplayMap](x.Chunks())
	if !ok {
		sc, isSkippable := x.Chunks().Get(0x03093002).(*gbx.SkippableChunk)
		if !isSkippable {
			return nil, errors.New("replay map: no embedded map")
		}
		if err := sc.Discover(x, opts); err != nil {
			return nil, fmt.Errorf("replay map: %w", err)
		}
		if c, ok = sc.Chunk().(*ReplayMap); !ok {
			return nil, errors.New("replay map: no embedded map")
		}
	}
	f, err := gbx.Parse(bytes.NewReader(c.Data), opts)
	if err != nil {
		return nil, fmt.Errorf("replay map: %w", err)
	}
	return f, nil
}

// Ghosts returns the ghosts of the replay.
func (x *ReplayRecord) Ghosts() []*Ghost {
	var gs []*Ghost
	if c, ok := gbx.Typed[*ReplayGhosts](x.Chunks()); ok {
		for _, r := range c.Ghosts {
			if g, ok := r.Node.(*Ghost); ok {
				gs = append(gs, g)
			}
		}
	}
	return gs
}

// ReplayDesc identifies the map and the driver.
type ReplayDesc struct {
	Version  uint32
	MapInfo  gbx.Ident
	Time     uint32
	Nickname string
}

func (*ReplayDesc) ID() gbx.ClassID { return 0x03093000 }

func (c *ReplayDesc) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	if c.MapInfo, err = r.Ident(); err != nil {
		return fmt.Errorf("read map info: %w", err)
	}
	if c.Time, err = r.Uint32(); err != nil {
		return err
	}
	c.Nickname, err = r.String(gbx.LengthPrefixUint32)
	return
}

func (c *ReplayDesc) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	if err := w.Ident(c.MapInfo); err != nil {
		return fmt.Errorf("write map info: %w", err)
	}
	if err := w.Uint32(c.Time); err != nil {
		return err
	}
	return w.String(c.Nickname, gbx.LengthPrefixUint32)
}

// ReplayMap is the embedded map file.
type ReplayMap struct {
	Data []byte
}

func (*ReplayMap) ID() gbx.ClassID { return 0x03093002 }

func (c *ReplayMap) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.Data, err = r.Data()
	return
}

func (c *ReplayMap) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.Data(c.Data)
}

// ReplayGhosts are the recorded runs.
type ReplayGhosts struct {
	Version uint32
	Ghosts  []gbx.NodeRef
}

func (*ReplayGhosts) ID() gbx.ClassID { return 0x03093014 }

func (c *ReplayGhosts) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	n, err := count(r, 4)
	if err != nil {
		return fmt.Errorf("read ghosts: %w", err)
	}
	c.Ghosts = make([]gbx.NodeRef, n)
	for i := range c.Ghosts {
		if c.Ghosts[i], err = r.NodeRef(); err != nil {
			return fmt.Errorf("read ghost %d: %w", i, err)
		}
	}
	return nil
}

func (c *ReplayGhosts) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	if err := w.Uint32(uint32(len(c.Ghosts))); err != nil {
		return err
	}
	for i, g := range c.Ghosts {
		if err := w.NodeRef(g); err != nil {
			return fmt.Errorf("write ghost %d: %w", i, err)
		}
	}
	return nil
}

// Ghost is a recorded run (CGameCtnGhost).
type Ghost struct{ gbx.NodeBase }

func (*Ghost) ClassID() gbx.ClassID { return ClassGhost }

var ghostClass = gbx.ClassDesc{
	ID:     ClassGhost,
	Name:   "CGameCtnGhost",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(Ghost) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x03092005, Name: "RaceTime", New: mk[GhostRaceTime]()},
		{ID: 0x03092008, Name: "Respawns", New: mk[GhostRespawns]()},
	},
}

// RaceTime returns the race time in milliseconds.
func (g *Ghost) RaceTime() (uint32, bool) {
	if c, ok := gbx.Typed[*GhostRaceTime](g.Chunks()); ok {
		return c.RaceTime, true
	}
	return 0, false
}

// GhostRaceTime is the race time in milliseconds.
type GhostRaceTime struct {
	RaceTime uint32
}

func (*GhostRaceTime) ID() gbx.ClassID { return 0x03092005 }

func (c *GhostRaceTime) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.RaceTime, err = r.Uint32()
	return
}

func (c *GhostRaceTime) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.Uint32(c.RaceTime)
}

// GhostRespawns is the respawn count.
type GhostRespawns struct {
	NbRespawns uint32
}

func (*GhostRespawns) ID() gbx.ClassID { return 0x03092008 }

func (c *GhostRespawns) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.NbRespawns, err = r.Uint32()
	return
}

func (c *GhostRespawns) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.Uint32(c.NbRespawns)
}
