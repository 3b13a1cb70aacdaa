package canvasgraph

// Stage is an optional augmentation applied to the base graph.
//
// A stage adds nodes and edges, and may Redirect existing edges, but never
// removes anything. A stage that inserts itself after the current output
// (g.Output()) must call SetOutput so the next stage attaches after it.
// Errors are returned to the caller unchanged.
type Stage interface {
	// Name identifies the stage in logs, spans and metrics.
	Name() string

	// Apply mutates g in place.
	Apply(g *Graph, a Anchors, cfg Config) error
}

// Anchors are the node IDs stages attach to besides the current output.
type Anchors struct {
	// ModelLoader supplies unet, clip, clip2 and vae.
	ModelLoader string
	// Denoiser is the base latent denoiser.
	Denoiser string
}

// DefaultAnchors returns the anchors of the base outpaint topology.
func DefaultAnchors() Anchors {
	return Anchors{ModelLoader: ModelLoaderID, Denoiser: DenoiseLatentsID}
}

// Stages holds one implementation per augmentation slot. A nil slot is
// skipped. The slots are applied in the fixed order returned by Ordered.
type Stages struct {
	Refiner       Stage
	VAE           Stage
	LoRA          Stage
	ControlNet    Stage
	ContentFilter Stage
	Watermark     Stage
}

// StageStep is one slot of the augmentation order together with its
// enabling condition.
type StageStep struct {
	Slot    string
	Stage   Stage
	Enabled func(Config) bool
}

func always(Config) bool { return true }

// Ordered returns the slots in application order:
//
//  1. refiner (iff enabled in the configuration)
//  2. VAE override
//  3. LoRA, after the refiner so adapters see the final denoiser setup
//  4. ControlNet, after LoRA
//  5. content filter (iff enabled), before anything is burned into the image
//  6. watermark (iff enabled), always the last mutation
func (s Stages) Ordered() []StageStep {
	return []StageStep{
		{Slot: "refiner", Stage: s.Refiner, Enabled: func(c Config) bool { return c.Refiner.Enabled }},
		{Slot: "vae", Stage: s.VAE, Enabled: always},
		{Slot: "lora", Stage: s.LoRA, Enabled: always},
		{Slot: "controlnet", Stage: s.ControlNet, Enabled: always},
		{Slot: "content_filter", Stage: s.ContentFilter, Enabled: func(c Config) bool { return c.NSFWChecker }},
		{Slot: "watermark", Stage: s.Watermark, Enabled: func(c Config) bool { return c.Watermarker }},
	}
}

// StageHook observes the driver. Either function may be nil.
type StageHook struct {
	// Skipped is called for a slot that is empty or disabled.
	Skipped func(slot, reason string)
	// Apply wraps one stage application; it must call run and return its error.
	Apply func(step StageStep, run func() error) error
}

// Augment applies the enabled stages to g in order and stops at the first
// error, which is returned unchanged.
func Augment(g *Graph, stages Stages, a Anchors, cfg Config, hook StageHook) error {
	for _, step := range stages.Ordered() {
		if step.Stage == nil {
			if hook.Skipped != nil {
				hook.Skipped(step.Slot, "no implementation")
			}
			continue
		}
		if !step.Enabled(cfg) {
			if hook.Skipped != nil {
				hook.Skipped(step.Slot, "disabled")
			}
			continue
		}

		stage := step.Stage
		run := func() error { return stage.Apply(g, a, cfg) }
		var err error
		if hook.Apply != nil {
			err = hook.Apply(step, run)
		} else {
			err = run()
		}
		if err != nil {
			return err
		}
	}
	return nil
}
