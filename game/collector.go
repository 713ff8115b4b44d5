package game

import (
	"fmt"

	"github.com/pg9182/gbx"
)

// Collector is the base class of everything shown in the editor inventory
// (CGameCtnCollector).
type Collector struct{ gbx.NodeBase }

func (*Collector) ClassID() gbx.ClassID { return ClassCollector }

var collectorClass = gbx.ClassDesc{
	ID:     ClassCollector,
	Name:   "CGameCtnCollector",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(Collector) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x2E001003, Name: "Desc", New: mk[CollectorDesc](), Skippable: true, Eager: true, Header: true},
		{ID: 0x2E001009, Name: "Page", New: mk[CollectorPage]()},
		{ID: 0x2E00100C, Name: "Name", New: mk[CollectorName]()},
	},
}

// CollectorDesc identifies the collector in the inventory.
type CollectorDesc struct {
	Ident    gbx.Ident
	Version  uint32
	PageName string
}

func (*CollectorDesc) ID() gbx.ClassID { return 0x2E001003 }

func (c *CollectorDesc) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Ident, err = r.Ident(); err != nil {
		return err
	}
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	c.PageName, err = r.String(gbx.LengthPrefixUint32)
	return
}

func (c *CollectorDesc) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Ident(c.Ident); err != nil {
		return err
	}
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	return w.String(c.PageName, gbx.LengthPrefixUint32)
}

// CollectorPage is the inventory page and icon.
type CollectorPage struct {
	PageName          string
	Icon              gbx.NodeRef // only if set
	ParentCollectorId gbx.Id
}

func (*CollectorPage) ID() gbx.ClassID { return 0x2E001009 }

func (c *CollectorPage) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.PageName, err = r.String(gbx.LengthPrefixUint32); err != nil {
		return fmt.Errorf("read page name: %w", err)
	}
	hasIcon, err := r.Bool()
	if err != nil {
		return fmt.Errorf("read has icon: %w", err)
	}
	c.Icon = gbx.NodeRef{}
	if hasIcon {
		if c.Icon, err = r.NodeRef(); err != nil {
			return fmt.Errorf("read icon: %w", err)
		}
	}
	if c.ParentCollectorId, err = r.Id(); err != nil {
		return fmt.Errorf("read parent collector id: %w", err)
	}
	return nil
}

func (c *CollectorPage) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.String(c.PageName, gbx.LengthPrefixUint32); err != nil {
		return fmt.Errorf("write page name: %w", err)
	}
	if err := w.Bool(!c.Icon.IsNull()); err != nil {
		return fmt.Errorf("write has icon: %w", err)
	}
	if !c.Icon.IsNull() {
		if err := w.NodeRef(c.Icon); err != nil {
			return fmt.Errorf("write icon: %w", err)
		}
	}
	if err := w.Id(c.ParentCollectorId); err != nil {
		return fmt.Errorf("write parent collector id: %w", err)
	}
	return nil
}

// CollectorName is the display name.
type CollectorName struct {
	Name string
}

func (*CollectorName) ID() gbx.ClassID { return 0x2E00100C }

func (c *CollectorName) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.Name, err = r.String(gbx.LengthPrefixUint32)
	return
}

func (c *CollectorName) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.String(c.Name, gbx.LengthPrefixUint32)
}

// ItemModel is a custom item (CGameItemModel).
type ItemModel struct{ gbx.NodeBase }

func (*ItemModel) ClassID() gbx.ClassID { return ClassItemModel }

var itemModelClass = gbx.ClassDesc{
	ID:     ClassItemModel,
	Name:   "CGameItemModel",
	Parent: ClassCollector,
	New:    func() gbx.Node { return new(ItemModel) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x2E002000, Name: "Type", New: mk[ItemType](), Skippable: true, Eager: true, Header: true},
		{ID: 0x2E002008, Name: "GroundPoints", New: mk[ItemGroundPoints]()},
		{ID: 0x2E002009, Name: "Placement", New: mk[ItemPlacement]()},
		{ID: 0x2E002012, Name: "Entity", New: mk[ItemEntity]()},
		{ID: 0x2E002019, Name: "Waypoint", New: mk[ItemWaypoint](), Skippable: true, Eager: true},
	},
}

// Entity returns the entity model reference, if any.
func (m *ItemModel) Entity() (gbx.NodeRef, bool) {
	if x, ok := gbx.Typed[*ItemEntity](m.Chunks()); ok {
		return x.EntityModel, true
	}
	return gbx.NodeRef{}, false
}

// Item types.
const (
	ItemTypeUndefined uint32 = iota
	ItemTypeOrnament
	ItemTypePickUp
	ItemTypeCharacter
	ItemTypeVehicle
)

// ItemType is the item type.
type ItemType struct {
	Type uint32
}

func (*ItemType) ID() gbx.ClassID { return 0x2E002000 }

func (c *ItemType) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	c.Type, err = r.Uint32()
	return
}

func (c *ItemType) Encode(w *gbx.Writer, _ gbx.Node) error {
	return w.Uint32(c.Type)
}

// ItemGroundPoints are the points used to snap the item to the ground.
type ItemGroundPoints struct {
	Points []gbx.Vec3
}

func (*ItemGroundPoints) ID() gbx.ClassID { return 0x2E002008 }

func (c *ItemGroundPoints) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	n, err := count(r, 12)
	if err != nil {
		return fmt.Errorf("read ground points: %w", err)
	}
	c.Points = make([]gbx.Vec3, n)
	for i := range c.Points {
		if c.Points[i], err = r.Vec3(); err != nil {
			return fmt.Errorf("read ground point %d: %w", i, err)
		}
	}
	return nil
}

func (c *ItemGroundPoints) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(uint32(len(c.Points))); err != nil {
		return err
	}
	for _, p := range c.Points {
		if err := w.Vec3(p); err != nil {
			return err
		}
	}
	return nil
}

// ItemPlacement is the pivot and grid snapping of the item.
type ItemPlacement struct {
	PivotOffset gbx.Vec3
	GridSnapH   float32
	GridSnapV   float32
}

func (*ItemPlacement) ID() gbx.ClassID { return 0x2E002009 }

func (c *ItemPlacement) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.PivotOffset, err = r.Vec3(); err != nil {
		return err
	}
	if c.GridSnapH, err = r.Float32(); err != nil {
		return err
	}
	c.GridSnapV, err = r.Float32()
	return
}

func (c *ItemPlacement) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Vec3(c.PivotOffset); err != nil {
		return err
	}
	if err := w.Float32(c.GridSnapH); err != nil {
		return err
	}
	return w.Float32(c.GridSnapV)
}

// ItemEntity references the model of the item, which is usually an external
// file.
type ItemEntity struct {
	EntityModel gbx.NodeRef
	DefaultSkin gbx.Id
}

func (*ItemEntity) ID() gbx.ClassID { return 0x2E002012 }

func (c *ItemEntity) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.EntityModel, err = r.NodeRef(); err != nil {
		return fmt.Errorf("read entity model: %w", err)
	}
	if c.DefaultSkin, err = r.Id(); err != nil {
		return fmt.Errorf("read default skin: %w", err)
	}
	return nil
}

func (c *ItemEntity) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.NodeRef(c.EntityModel); err != nil {
		return fmt.Errorf("write entity model: %w", err)
	}
	return w.Id(c.DefaultSkin)
}

// ItemWaypoint is the checkpoint trigger radius.
type ItemWaypoint struct {
	Version        uint32
	WaypointRadius float32
}

func (*ItemWaypoint) ID() gbx.ClassID { return 0x2E002019 }

func (c *ItemWaypoint) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	c.WaypointRadius, err = r.Float32()
	return
}

func (c *ItemWaypoint) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	return w.Float32(c.WaypointRadius)
}

// StaticObjectModel is a solid model referenced by items
// (CPlugStaticObjectModel).
type StaticObjectModel struct{ gbx.NodeBase }

func (*StaticObjectModel) ClassID() gbx.ClassID { return ClassStaticObjectModel }

var staticObjectModelClass = gbx.ClassDesc{
	ID:     ClassStaticObjectModel,
	Name:   "CPlugStaticObjectModel",
	Parent: ClassNod,
	New:    func() gbx.Node { return new(StaticObjectModel) },
	Chunks: []gbx.ChunkDesc{
		{ID: 0x09145000, Name: "Model", New: mk[StaticObjectModelDesc]()},
	},
}

// StaticObjectModelDesc is the model version and collision flag.
type StaticObjectModelDesc struct {
	Version  uint32
	IsStatic bool
}

func (*StaticObjectModelDesc) ID() gbx.ClassID { return 0x09145000 }

func (c *StaticObjectModelDesc) Decode(r *gbx.Reader, _ gbx.Node) (err error) {
	if c.Version, err = r.Uint32(); err != nil {
		return err
	}
	c.IsStatic, err = r.Bool()
	return
}

func (c *StaticObjectModelDesc) Encode(w *gbx.Writer, _ gbx.Node) error {
	if err := w.Uint32(c.Version); err != nil {
		return err
	}
	return w.Bool(c.IsStatic)
}
