package canvasgraph

// InfillStrategy creates the node that fills the transparent parts of the
// canvas image before it is encoded. Every variant exposes its result on
// the "image" output port.
type InfillStrategy interface {
	Node(id string, image *ImageField) Node
}

// TileInfill fills by tiling the surrounding image.
type TileInfill struct {
	TileSize int
}

// Node implements InfillStrategy.
func (s TileInfill) Node(id string, image *ImageField) Node {
	return &InfillTileNode{
		Base:     Base{ID: id, IsIntermediate: true},
		Image:    image,
		TileSize: s.TileSize,
	}
}

// PatchMatchInfill fills using PatchMatch.
type PatchMatchInfill struct{}

// Node implements InfillStrategy.
func (PatchMatchInfill) Node(id string, image *ImageField) Node {
	return &InfillPatchMatchNode{
		Base:  Base{ID: id, IsIntermediate: true},
		Image: image,
	}
}

// infillStrategyFor picks the strategy selected by the infill method.
func infillStrategyFor(cfg Config) (InfillStrategy, error) {
	switch cfg.InfillMethod {
	case InfillTile:
		if cfg.TileSize < 1 {
			return nil, invalidConfig("tile_size", "must be at least 1, got %d", cfg.TileSize)
		}
		return TileInfill{TileSize: cfg.TileSize}, nil
	case InfillPatchMatch:
		return PatchMatchInfill{}, nil
	default:
		return nil, invalidConfig("infill_method", "unknown infill method %q", cfg.InfillMethod)
	}
}
