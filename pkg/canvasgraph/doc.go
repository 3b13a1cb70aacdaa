/*
Package canvasgraph assembles the pipeline graph for canvas outpainting.

# Overview

canvasgraph is a pure transformation from a flat generation configuration
into a directed acyclic graph of typed nodes connected by typed,
single-writer edges. The graph is handed to an external inference engine,
which runs it; this package never runs anything.

Assembly happens in three steps:
  - BuildBase creates the fixed outpaint topology: conditioning, infill,
    mask pipeline, latent denoising, decoding, color correction,
    compositing, and iteration
  - the augmentation stages (refiner, VAE, LoRA, ControlNet, content
    filter, watermark) splice their nodes into it, in a fixed order
  - Finish validates the result and freezes it into a Pipeline

# Basic Usage

	cfg := canvasgraph.DefaultConfig()
	cfg.Model = &canvasgraph.ModelIdentifier{ModelName: "sdxl-base", BaseModel: "sdxl"}
	cfg.PositivePrompt = "a lighthouse at dusk"
	cfg.InitImage = "canvas.png"

	a := canvasgraph.NewAssembler(canvasgraph.WithStages(augment.Defaults()))
	pipeline, err := a.Assemble(ctx, cfg)
	if err != nil {
	    log.Fatal(err)
	}
	data, _ := json.Marshal(pipeline) // {"id": ..., "nodes": {...}, "edges": [...]}

# Building Graphs by Hand

Graph is a mutable builder. Every AddNode, AddEdge and Redirect call checks
the wiring rules before changing anything:

	g := canvasgraph.NewGraph("demo")
	_ = g.AddNode(&canvasgraph.RandomIntNode{Base: canvasgraph.Base{ID: "seed"}, High: 100})
	_ = g.AddNode(&canvasgraph.RangeOfSizeNode{Base: canvasgraph.Base{ID: "range"}, Size: 4, Step: 1})
	if err := g.AddEdge(canvasgraph.At("seed", "value"), canvasgraph.At("range", "start")); err != nil {
	    // *GraphValidationError
	}
	pipeline, err := g.Finish()

Nodes and edges are never removed. A stage that needs to splice a node in
front of existing consumers re-points their edges with Redirect.

# Augmentation Stages

A Stage mutates the graph in place. The Stages struct has one slot per
stage and the driver applies them in this order:

	refiner -> vae -> lora -> controlnet -> content filter -> watermark

The refiner, content filter and watermark run only when enabled in the
configuration. A stage that appends itself after the current output calls
SetOutput so the next stage attaches after it.

# Error Handling

Assembly either yields a validated Pipeline or fails:

	pipeline, err := a.Assemble(ctx, cfg)
	var cfgErr *canvasgraph.ConfigurationError
	var graphErr *canvasgraph.GraphValidationError
	switch {
	case errors.As(err, &cfgErr):
	    // missing model, bad strength, ...
	case errors.As(err, &graphErr):
	    // errors.Is(err, canvasgraph.ErrCycle), ErrPortAlreadyWritten, ...
	case err != nil:
	    // a stage failed; its error is returned unchanged
	}

# Observability

Logging, metrics and tracing are opt-in:

	a := canvasgraph.NewAssembler(
	    canvasgraph.WithLogger(slog.Default()),
	    canvasgraph.WithMetrics(true),
	    canvasgraph.WithTracing(true))

# Thread Safety

Graph must be built by a single goroutine. Pipeline is immutable and safe
to share. Assembler keeps no per-call state.
*/
package canvasgraph
