package game

import (
	"fmt"

	"github.com/pg9182/gbx"
)

// Challenge is a map (CGameCtnChallenge).
type Challenge struct{ gbx.NodeBase }

func (*Challenge) ClassID() gbx.ClassID { return ClassChallenge }

var challengeClass = gbx.ClassDesc{
	ID:     ClassChallenge,
	Name:   "CGameCtnChallenge",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(Challenge) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x03043002, Name: "Info", New: mk[ChallengeInfo](), Skippable: true, Eager: true, Header: true},
		{ID: 0x03043005, Name: "Xml", New: mk[ChallengeXml](), Skippable: true, Eager: true, Header: true},
		{ID: 0x03043007, Name: "Thumbnail", New: mk[ChallengeThumbnail](), Skippable: true, Header: true, Heavy: true},
		{ID: 0x03043003, Name: "Kind", New: mk[ChallengeKind]()},
		{ID: 0x0304300D, Name: "Vehicle", New: mk[ChallengeVehicle]()},
		{ID: 0x03043011, Name: "Parameters", New: mk[ChallengeParams]()},
		{ID: 0x03043018, Name: "Laps", New: mk[ChallengeLaps](), Skippable: true, Eager: true},
		{ID: 0x0304301F, Name: "Blocks", New: mk[ChallengeBlocks]()},
		{ID: 0x03043040, Name: "Items", New: mk[ChallengeItems](), Skippable: true},
	},
}

// Kind returns the map kind chunk.
func (c *Challenge) Kind() (*ChallengeKind, bool) {
	return gbx.Typed[*ChallengeKind](c.Chunks())
}

// Info returns the map info header chunk.
func (c *Challenge) Info() (*ChallengeInfo, bool) {
	return gbx.Typed[*ChallengeInfo](c.HeaderChunks())
}

// Blocks returns the block list chunk.
func (c *Challenge) Blocks() (*ChallengeBlocks, bool) {
	return gbx.Typed[*ChallengeBlocks](c.Chunks())
}

// Parameters returns the challenge parameters node, if any.
func (c *Challenge) Parameters() *ChallengeParameters {
	if x, ok := gbx.Typed[*ChallengeParams](c.Chunks()); ok {
		if p, ok := x.Parameters.Node.(*ChallengeParameters); ok {
			return p
		}
	}
	return nil
}

// ChallengeInfo holds the medal times shown in the map browser.
type ChallengeInfo struct {
	Version    uint8
	BronzeTime uint32
	SilverTime uint32
	GoldTime   uint32
	AuthorTime uint32
	Cost       uint32
	IsLapRace  bool
	NbLaps     uint32
}

func (*ChallengeInfo) ID() gbx.ClassID { return 0x03043002 }

func (c *ChallengeInfo) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint8(); err != nil {
		return err
	}
	for _, v := range []*uint32{&c.BronzeTime, &c.SilverTime, &c.GoldTime, &c.AuthorTime, &c.Cost} {
		if *v, err = r.Uint32(); err != nil {
			return err
		}
	}
	if c.IsLapRace, err = r.Bool(); err != nil {
		return err
	}
	if c.NbLaps, err = r.Uint32(); err != nil {
		return err
	}
	return nil
}

func (c *ChallengeInfo) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint8(c.Version); err != nil {
		return err
	}
	for _, v := range []uint32{c.BronzeTime, c.SilverTime, c.GoldTime, c.AuthorTime, c.Cost} {
		if err := w.Uint32(v); err != nil {
			return err
		}
	}
	if err := w.Bool(c.IsLapRace); err != nil {
		return err
	}
	return w.Uint32(c.NbLaps)
}

// ChallengeXml is the map description as an XML document.
type ChallengeXml struct {
	Xml string
}

func (*ChallengeXml) ID() gbx.ClassID { return 0x03043005 }

func (c *ChallengeXml) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.Xml, err = r.String(gbx.LengthPrefixUint32)
	return
}

func (c *ChallengeXml) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.String(c.Xml, gbx.LengthPrefixUint32)
}

// ChallengeThumbnail is the JPEG thumbnail and the author comments.
type ChallengeThumbnail struct {
	Jpeg     []byte
	Comments string
}

func (*ChallengeThumbnail) ID() gbx.ClassID { return 0x03043007 }

func (c *ChallengeThumbnail) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Jpeg, err = r.Data(); err != nil {
		return fmt.Errorf("read thumbnail: %w", err)
	}
	if c.Comments, err = r.String(gbx.LengthPrefixUint32); err != nil {
		return fmt.Errorf("read comments: %w", err)
	}
	return nil
}

func (c *ChallengeThumbnail) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Data(c.Jpeg); err != nil {
		return err
	}
	return w.String(c.Comments, gbx.LengthPrefixUint32)
}

// ChallengeKind is the map kind.
type ChallengeKind struct {
	Kind  uint32
	Flags uint32
}

func (*ChallengeKind) ID() gbx.ClassID { return 0x03043003 }

func (c *ChallengeKind) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Kind, err = r.Uint32(); err != nil {
		return err
	}
	c.Flags, err = r.Uint32()
	return
}

func (c *ChallengeKind) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Kind); err != nil {
		return err
	}
	return w.Uint32(c.Flags)
}

// ChallengeVehicle identifies the car driven on the map.
type ChallengeVehicle struct {
	Vehicle gbx.Ident
}

func (*ChallengeVehicle) ID() gbx.ClassID { return 0x0304300D }

func (c *ChallengeVehicle) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.Vehicle, err = r.Ident()
	return
}

func (c *ChallengeVehicle) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.Ident(c.Vehicle)
}

// ChallengeParams references the ChallengeParameters node.
type ChallengeParams struct {
	Parameters gbx.NodeRef
	Kind       uint32
}

func (*ChallengeParams) ID() gbx.ClassID { return 0x03043011 }

func (c *ChallengeParams) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Parameters, err = r.NodeRef(); err != nil {
		return fmt.Errorf("read parameters: %w", err)
	}
	c.Kind, err = r.Uint32()
	return
}

func (c *ChallengeParams) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.NodeRef(c.Parameters); err != nil {
		return fmt.Errorf("write parameters: %w", err)
	}
	return w.Uint32(c.Kind)
}

// ChallengeLaps is the lap count.
type ChallengeLaps struct {
	IsLapRace bool
	NbLaps    uint32
}

func (*ChallengeLaps) ID() gbx.ClassID { return 0x03043018 }

func (c *ChallengeLaps) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.IsLapRace, err = r.Bool(); err != nil {
		return err
	}
	c.NbLaps, err = r.Uint32()
	return
}

func (c *ChallengeLaps) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Bool(c.IsLapRace); err != nil {
		return err
	}
	return w.Uint32(c.NbLaps)
}

// blockFlagSkin marks blocks followed by their author and skin.
const (
	blockFlagSkin uint32 = 1 << 15
	blockFlagFree uint32 = 0xFFFFFFFF
)

// Block is a block placed on the map grid.
type Block struct {
	Name   gbx.Id
	Dir    uint8
	Coord  gbx.Byte3
	Flags  uint32
	Author gbx.Id      // if Flags has the skin bit
	Skin   gbx.NodeRef // if Flags has the skin bit
}

// HasSkin checks if the block carries a skin.
func (b Block) HasSkin() bool {
	return b.Flags != blockFlagFree && b.Flags&blockFlagSkin != 0
}

// ChallengeBlocks is the map identity, size and block list.
type ChallengeBlocks struct {
	MapInfo    gbx.Ident
	Name       string
	Decoration gbx.Ident
	Size       gbx.Int3
	NeedUnlock bool
	Version    uint32
	Blocks     []Block
}

func (*ChallengeBlocks) ID() gbx.ClassID { return 0x0304301F }

func (c *ChallengeBlocks) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.MapInfo, err = r.Ident(); err != nil {
		return fmt.Errorf("read map info: %w", err)
	}
	if c.Name, err = r.String(gbx.LengthPrefixUint32); err != nil {
		return fmt.Errorf("read map name: %w", err)
	}
	if c.Decoration, err = r.Ident(); err != nil {
		return fmt.Errorf("read decoration: %w", err)
	}
	if c.Size, err = r.Int3(); err != nil {
		return fmt.Errorf("read size: %w", err)
	}
	if c.NeedUnlock, err = r.Bool(); err != nil {
		return fmt.Errorf("read need unlock: %w", err)
	}
	if c.Version, err = r.Uint32(); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	n, err := count(r, 12)
	if err != nil {
		return fmt.Errorf("read blocks: %w", err)
	}
	c.Blocks = make([]Block, n)
	for i := range c.Blocks {
		b := &c.Blocks[i]
		if b.Name, err = r.Id(); err != nil {
			return fmt.Errorf("read block %d name: %w", i, err)
		}
		if b.Dir, err = r.Uint8(); err != nil {
			return fmt.Errorf("read block %d direction: %w", i, err)
		}
		if b.Coord, err = r.Byte3(); err != nil {
			return fmt.Errorf("read block %d coordinates: %w", i, err)
		}
		if b.Flags, err = r.Uint32(); err != nil {
			return fmt.Errorf("read block %d flags: %w", i, err)
		}
		if b.HasSkin() {
			if b.Author, err = r.Id(); err != nil {
				return fmt.Errorf("read block %d author: %w", i, err)
			}
			if b.Skin, err = r.NodeRef(); err != nil {
				return fmt.Errorf("read block %d skin: %w", i, err)
			}
		}
	}
	return nil
}

func (c *ChallengeBlocks) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Ident(c.MapInfo); err != nil {
		return fmt.Errorf("write map info: %w", err)
	}
	if err := w.String(c.Name, gbx.LengthPrefixUint32); err != nil {
		return fmt.Errorf("write map name: %w", err)
	}
	if err := w.Ident(c.Decoration); err != nil {
		return fmt.Errorf("write decoration: %w", err)
	}
	if err := w.Int3(c.Size); err != nil {
		return fmt.Errorf("write size: %w", err)
	}
	if err := w.Bool(c.NeedUnlock); err != nil {
		return fmt.Errorf("write need unlock: %w", err)
	}
	if err := w.Uint32(c.Version); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := w.Uint32(uint32(len(c.Blocks))); err != nil {
		return fmt.Errorf("write block count: %w", err)
	}
	for i, b := range c.Blocks {
		if err := w.Id(b.Name); err != nil {
			return fmt.Errorf("write block %d name: %w", i, err)
		}
		if err := w.Uint8(b.Dir); err != nil {
			return fmt.Errorf("write block %d direction: %w", i, err)
		}
		if err := w.Byte3(b.Coord); err != nil {
			return fmt.Errorf("write block %d coordinates: %w", i, err)
		}
		if err := w.Uint32(b.Flags); err != nil {
			return fmt.Errorf("write block %d flags: %w", i, err)
		}
		if b.HasSkin() {
			if err := w.Id(b.Author); err != nil {
				return fmt.Errorf("write block %d author: %w", i, err)
			}
			if err := w.NodeRef(b.Skin); err != nil {
				return fmt.Errorf("write block %d skin: %w", i, err)
			}
		}
	}
	return nil
}

// ChallengeItems is the list of items placed on the map.
type ChallengeItems struct {
	Version uint32
	Items   []gbx.NodeRef // AnchoredObject
}

func (*ChallengeItems) ID() gbx.ClassID { return 0x03043040 }

func (c *ChallengeItems) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	n, err := count(r, 4)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	c.Items = make([]gbx.NodeRef, n)
	for i := range c.Items {
		if c.Items[i], err = r.NodeRef(); err != nil {
			return fmt.Errorf("read item %d: %w", i, err)
		}
	}
	return nil
}

func (c *ChallengeItems) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	if err := w.Uint32(uint32(len(c.Items))); err != nil {
		return err
	}
	for i, x := range c.Items {
		if err := w.NodeRef(x); err != nil {
			return fmt.Errorf("write item %d: %w", i, err)
		}
	}
	return nil
}

// ChallengeParameters holds the medal times and tips (CGameCtnChallengeParameters).
type ChallengeParameters struct{ gbx.NodeBase }

func (*ChallengeParameters) ClassID() gbx.ClassID { return ClassChallengeParameters }

var challengeParametersClass = gbx.ClassDesc{
	ID:     ClassChallengeParameters,
	Name:   "CGameCtnChallengeParameters",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(ChallengeParameters) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x0305B001, Name: "Tips", New: mk[ParametersTips]()},
		{ID: 0x0305B004, Name: "Times", New: mk[ParametersTimes]()},
		{ID: 0x0305B008, Name: "TimeLimit", New: mk[ParametersTimeLimit](), Skippable: true, Eager: true},
	},
}

// ParametersTips are the loading screen tips.
type ParametersTips struct {
	Tips [4]string
}

func (*ParametersTips) ID() gbx.ClassID { return 0x0305B001 }

func (c *ParametersTips) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	for i := range c.Tips {
		if c.Tips[i], err = r.String(gbx.LengthPrefixUint32); err != nil {
			return fmt.Errorf("read tip %d: %w", i, err)
		}
	}
	return nil
}

func (c *ParametersTips) Encode(w *gbx.Writer, _ gbx.Node) error {
	for i, s := range c.Tips {
		if err := w.String(s, gbx.LengthPrefixUint32); err != nil {
			return fmt.Errorf("write tip %d: %w", i, err)
		}
	}
	return nil
}

// ParametersTimes are the medal times in milliseconds.
type ParametersTimes struct {
	BronzeTime uint32
	SilverTime uint32
	GoldTime   uint32
	AuthorTime uint32
}

func (*ParametersTimes) ID() gbx.ClassID { return 0x0305B004 }

func (c *ParametersTimes) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	for _, v := range []*uint32{&c.BronzeTime, &c.SilverTime, &c.GoldTime, &c.AuthorTime} {
		if *v, err = r.Uint32(); err != nil {
			return err
		}
	}
	return nil
}

func (c *ParametersTimes) Encode(w *gbx.Writer, _ gbx.Node) error {
	for _, v := range []uint32{c.BronzeTime, c.SilverTime, c.GoldTime, c.AuthorTime} {
		if err := w.Uint32(v); err != nil {
			return err
		}
	}
	return nil
}

// ParametersTimeLimit is the time limit and author score of stunt maps.
type ParametersTimeLimit struct {
	TimeLimit   uint32
	AuthorScore uint32
}

func (*ParametersTimeLimit) ID() gbx.ClassID { return 0x0305B008 }

func (c *ParametersTimeLimit) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.TimeLimit, err = r.Uint32(); err != nil {
		return err
	}
	c.AuthorScore, err = r.Uint32()
	return
}

func (c *ParametersTimeLimit) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.TimeLimit); err != nil {
		return err
	}
	return w.Uint32(c.AuthorScore)
}

// BlockSkin is a custom sign texture (CGameCtnBlockSkin).
type BlockSkin struct{ gbx.NodeBase }

func (*BlockSkin) ClassID() gbx.ClassID { return ClassBlockSkin }

var blockSkinClass = gbx.ClassDesc{
	ID:     ClassBlockSkin,
	Name:   "CGameCtnBlockSkin",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(BlockSkin) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x03059002, Name: "Skin", New: mk[BlockSkinText]()},
	},
}

// BlockSkinText is the skin text and pack descriptor.
type BlockSkinText struct {
	Text     string
	PackDesc string
}

func (*BlockSkinText) ID() gbx.ClassID { return 0x03059002 }

func (c *BlockSkinText) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Text, err = r.String(gbx.LengthPrefixUint32); err != nil {
		return err
	}
	c.PackDesc, err = r.String(gbx.LengthPrefixUint32)
	return
}

func (c *BlockSkinText) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.String(c.Text, gbx.LengthPrefixUint32); err != nil {
		return err
	}
	return w.String(c.PackDesc, gbx.LengthPrefixUint32)
}

// AnchoredObject is an item placed on a map (CGameCtnAnchoredObject).
type AnchoredObject struct{ gbx.NodeBase }

func (*AnchoredObject) ClassID() gbx.ClassID { return ClassAnchoredObject }

var anchoredObjectClass = gbx.ClassDesc{
	ID:     ClassAnchoredObject,
	Name:   "CGameCtnAnchoredObject",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(AnchoredObject) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x03101002, Name: "Placement", New: mk[AnchoredObjectPlacement]()},
	},
}

// AnchoredObjectPlacement is the model and position of a placed item.
type AnchoredObjectPlacement struct {
	Version          uint32
	ItemModel        gbx.Ident
	PitchYawRoll     gbx.Vec3
	BlockCoord       gbx.Byte3
	AnchorTreeId     gbx.Id
	AbsolutePosition gbx.Vec3
}

func (*AnchoredObjectPlacement) ID() gbx.ClassID { return 0x03101002 }

func (c *AnchoredObjectPlacement) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	if c.ItemModel, err = r.Ident(); err != nil {
		return fmt.Errorf("read item model: %w", err)
	}
	if c.PitchYawRoll, err = r.Vec3(); err != nil {
		return err
	}
	if c.BlockCoord, err = r.Byte3(); err != nil {
		return err
	}
	if c.AnchorTreeId, err = r.Id(); err != nil {
		return fmt.Errorf("read anchor tree id: %w", err)
	}
	c.AbsolutePosition, err = r.Vec3()
	return
}

func (c *AnchoredObjectPlacement) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	if err := w.Ident(c.ItemModel); err != nil {
		return fmt.Errorf("write item model: %w", err)
	}
	if err := w.Vec3(c.PitchYawRoll); err != nil {
		return err
	}
	if err := w.Byte3(c.BlockCoord); err != nil {
		return err
	}
	if err := w.Id(c.AnchorTreeId); err != nil {
		return fmt.Errorf("write anchor tree id: %w", err)
	}
	return w.Vec3(c.AbsolutePosition)
}
