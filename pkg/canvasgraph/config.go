package canvasgraph

// Infill methods.
const (
	InfillTile       = "tile"
	InfillPatchMatch = "patchmatch"
)

// Mask blur kernels.
const (
	BlurBox      = "box"
	BlurGaussian = "gaussian"
)

// Config is the flat generation configuration the graph is assembled from.
// The struct tags match the keys of YAML/JSON configuration files.
type Config struct {
	// Model is the selected main model. Required.
	Model *ModelIdentifier `json:"model" yaml:"model" mapstructure:"model"`

	PositivePrompt      string `json:"positive_prompt" yaml:"positive_prompt" mapstructure:"positive_prompt"`
	NegativePrompt      string `json:"negative_prompt" yaml:"negative_prompt" mapstructure:"negative_prompt"`
	PositiveStylePrompt string `json:"positive_style_prompt" yaml:"positive_style_prompt" mapstructure:"positive_style_prompt"`
	NegativeStylePrompt string `json:"negative_style_prompt" yaml:"negative_style_prompt" mapstructure:"negative_style_prompt"`
	// ShouldConcatStylePrompt appends the style prompt to the prompt instead
	// of using it standalone.
	ShouldConcatStylePrompt bool `json:"should_concat_style_prompt" yaml:"should_concat_style_prompt" mapstructure:"should_concat_style_prompt"`

	CFGScale  float64 `json:"cfg_scale" yaml:"cfg_scale" mapstructure:"cfg_scale"`
	Scheduler string  `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Steps     int     `json:"steps" yaml:"steps" mapstructure:"steps"`
	// Strength is the fraction of the image to re-denoise, in [0, 1].
	Strength float64 `json:"strength" yaml:"strength" mapstructure:"strength"`

	BoundingBox BoundingBox `json:"bounding_box" yaml:"bounding_box" mapstructure:"bounding_box"`

	Iterations          int   `json:"iterations" yaml:"iterations" mapstructure:"iterations"`
	Seed                int64 `json:"seed" yaml:"seed" mapstructure:"seed"`
	ShouldRandomizeSeed bool  `json:"should_randomize_seed" yaml:"should_randomize_seed" mapstructure:"should_randomize_seed"`

	// VAEPrecision is "fp32" for full precision; anything else means half.
	VAEPrecision string `json:"vae_precision" yaml:"vae_precision" mapstructure:"vae_precision"`
	// VAE overrides the main model's VAE when set.
	VAE *ModelIdentifier `json:"vae" yaml:"vae" mapstructure:"vae"`

	ShouldUseCPUNoise bool `json:"should_use_cpu_noise" yaml:"should_use_cpu_noise" mapstructure:"should_use_cpu_noise"`
	// ShouldUseNoiseSettings makes ShouldUseCPUNoise take effect; otherwise
	// CPU noise is used.
	ShouldUseNoiseSettings bool `json:"should_use_noise_settings" yaml:"should_use_noise_settings" mapstructure:"should_use_noise_settings"`

	MaskBlur       int    `json:"mask_blur" yaml:"mask_blur" mapstructure:"mask_blur"`
	MaskBlurMethod string `json:"mask_blur_method" yaml:"mask_blur_method" mapstructure:"mask_blur_method"`

	InfillMethod string `json:"infill_method" yaml:"infill_method" mapstructure:"infill_method"`
	TileSize     int    `json:"tile_size" yaml:"tile_size" mapstructure:"tile_size"`

	// InitImage is the canvas image being outpainted; MaskImage is the
	// user-painted mask. Both name images already stored by the engine.
	InitImage string `json:"init_image" yaml:"init_image" mapstructure:"init_image"`
	MaskImage string `json:"mask_image" yaml:"mask_image" mapstructure:"mask_image"`

	Refiner     RefinerConfig      `json:"refiner" yaml:"refiner" mapstructure:"refiner"`
	LoRAs       []LoRAConfig       `json:"loras" yaml:"loras" mapstructure:"loras"`
	ControlNets []ControlNetConfig `json:"controlnets" yaml:"controlnets" mapstructure:"controlnets"`

	NSFWChecker bool `json:"nsfw_checker" yaml:"nsfw_checker" mapstructure:"nsfw_checker"`
	Watermarker bool `json:"watermarker" yaml:"watermarker" mapstructure:"watermarker"`
}

// BoundingBox is the size of the canvas region being generated.
type BoundingBox struct {
	Width  int `json:"width" yaml:"width" mapstructure:"width"`
	Height int `json:"height" yaml:"height" mapstructure:"height"`
}

// RefinerConfig configures the second-pass refiner.
type RefinerConfig struct {
	Enabled bool             `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Model   *ModelIdentifier `json:"model" yaml:"model" mapstructure:"model"`
	// Start is the hand-off fraction at which the refiner takes over.
	Start                  float64 `json:"start" yaml:"start" mapstructure:"start"`
	Steps                  int     `json:"steps" yaml:"steps" mapstructure:"steps"`
	CFGScale               float64 `json:"cfg_scale" yaml:"cfg_scale" mapstructure:"cfg_scale"`
	Scheduler              string  `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	PositiveAestheticScore float64 `json:"positive_aesthetic_score" yaml:"positive_aesthetic_score" mapstructure:"positive_aesthetic_score"`
	NegativeAestheticScore float64 `json:"negative_aesthetic_score" yaml:"negative_aesthetic_score" mapstructure:"negative_aesthetic_score"`
}

// LoRAConfig is one low-rank adapter to apply.
type LoRAConfig struct {
	Model  ModelIdentifier `json:"model" yaml:"model" mapstructure:"model"`
	Weight float64         `json:"weight" yaml:"weight" mapstructure:"weight"`
}

// ControlNetConfig is one guidance input.
type ControlNetConfig struct {
	Enabled          bool            `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Model            ModelIdentifier `json:"model" yaml:"model" mapstructure:"model"`
	Image            string          `json:"image" yaml:"image" mapstructure:"image"`
	Weight           float64         `json:"weight" yaml:"weight" mapstructure:"weight"`
	BeginStepPercent float64         `json:"begin_step_percent" yaml:"begin_step_percent" mapstructure:"begin_step_percent"`
	EndStepPercent   float64         `json:"end_step_percent" yaml:"end_step_percent" mapstructure:"end_step_percent"`
	ControlMode      string          `json:"control_mode" yaml:"control_mode" mapstructure:"control_mode"`
	ResizeMode       string          `json:"resize_mode" yaml:"resize_mode" mapstructure:"resize_mode"`
}

// DefaultConfig returns the defaults a fresh canvas session starts with.
// Model is left unset.
func DefaultConfig() Config {
	return Config{
		CFGScale:            7.5,
		Scheduler:           "euler",
		Steps:               50,
		Strength:            0.75,
		BoundingBox:         BoundingBox{Width: 1024, Height: 1024},
		Iterations:          1,
		ShouldRandomizeSeed: true,
		VAEPrecision:        "fp32",
		ShouldUseCPUNoise:   true,
		MaskBlur:            16,
		MaskBlurMethod:      BlurBox,
		InfillMethod:        InfillPatchMatch,
		TileSize:            32,
		Refiner: RefinerConfig{
			Start:                  0.8,
			Steps:                  20,
			CFGScale:               7.5,
			Scheduler:              "euler",
			PositiveAestheticScore: 6,
			NegativeAestheticScore: 2.5,
		},
	}
}

// Validate checks the configuration before any node is created.
// It returns a *ConfigurationError describing the first problem found.
func (c Config) Validate() error {
	if c.Model == nil || c.Model.ModelName == "" {
		return &ConfigurationError{Field: "model", Reason: "a main model must be selected", Err: ErrMissingModel}
	}
	if c.Steps < 1 {
		return invalidConfig("steps", "must be at least 1, got %d", c.Steps)
	}
	if c.Strength < 0 || c.Strength > 1 {
		return invalidConfig("strength", "must be within [0, 1], got %g", c.Strength)
	}
	if c.Iterations < 1 {
		return invalidConfig("iterations", "must be at least 1, got %d", c.Iterations)
	}
	if c.BoundingBox.Width <= 0 || c.BoundingBox.Height <= 0 {
		return invalidConfig("bounding_box", "must be positive, got %dx%d", c.BoundingBox.Width, c.BoundingBox.Height)
	}
	if c.Scheduler == "" {
		return invalidConfig("scheduler", "must be set")
	}
	if c.MaskBlur < 0 {
		return invalidConfig("mask_blur", "must not be negative, got %d", c.MaskBlur)
	}
	switch c.MaskBlurMethod {
	case BlurBox, BlurGaussian:
	default:
		return invalidConfig("mask_blur_method", "unknown blur method %q", c.MaskBlurMethod)
	}
	if _, err := infillStrategyFor(c); err != nil {
		return err
	}
	if c.Refiner.Enabled {
		if c.Refiner.Model == nil || c.Refiner.Model.ModelName == "" {
			return invalidConfig("refiner.model", "a refiner model must be selected when the refiner is enabled")
		}
		if c.Refiner.Start <= 0 || c.Refiner.Start > 1 {
			return invalidConfig("refiner.start", "must be within (0, 1], got %g", c.Refiner.Start)
		}
		if c.Refiner.Steps < 1 {
			return invalidConfig("refiner.steps", "must be at least 1, got %d", c.Refiner.Steps)
		}
	}
	return nil
}

// UseCPUNoise resolves the effective noise source.
func (c Config) UseCPUNoise() bool {
	if c.ShouldUseNoiseSettings {
		return c.ShouldUseCPUNoise
	}
	return true
}

// StylePrompts returns the style text for the positive and negative
// conditioning. With ShouldConcatStylePrompt the style prompt is appended
// to the prompt; otherwise it is used standalone.
func (c Config) StylePrompts() (positive, negative string) {
	return stylePrompt(c.PositivePrompt, c.PositiveStylePrompt, c.ShouldConcatStylePrompt),
		stylePrompt(c.NegativePrompt, c.NegativeStylePrompt, c.ShouldConcatStylePrompt)
}

func stylePrompt(prompt, style string, concat bool) string {
	if !concat {
		return style
	}
	if style == "" {
		return prompt
	}
	if prompt == "" {
		return style
	}
	return prompt + " " + style
}
