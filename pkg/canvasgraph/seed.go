package canvasgraph

// maxRandomSeed is the exclusive upper bound of generated seeds.
const maxRandomSeed = 2147483647

// SeedStrategy fills the "start" of the range generator that feeds the
// noise node's seed through the iterator.
type SeedStrategy interface {
	Apply(g *Graph, rangeNode *RangeOfSizeNode) error
}

// RandomSeed inserts a random-integer node wired into the range's start port.
type RandomSeed struct{}

// Apply implements SeedStrategy.
func (RandomSeed) Apply(g *Graph, rangeNode *RangeOfSizeNode) error {
	rangeNode.Start = nil
	if err := g.AddNode(&RandomIntNode{
		Base: Base{ID: RandomIntID, IsIntermediate: true},
		Low:  0,
		High: maxRandomSeed,
	}); err != nil {
		return err
	}
	return g.AddEdge(At(RandomIntID, "value"), At(rangeNode.ID, "start"))
}

// FixedSeed sets the range's start to a literal seed.
type FixedSeed struct {
	Seed int64
}

// Apply implements SeedStrategy.
func (s FixedSeed) Apply(_ *Graph, rangeNode *RangeOfSizeNode) error {
	seed := s.Seed
	rangeNode.Start = &seed
	return nil
}

// SeedStrategyFor picks the strategy selected by the randomize flag.
func SeedStrategyFor(cfg Config) SeedStrategy {
	if cfg.ShouldRandomizeSeed {
		return RandomSeed{}
	}
	return FixedSeed{Seed: cfg.Seed}
}
