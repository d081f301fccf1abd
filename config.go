package cartolive

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

type Config struct {
	Concurrency int                  `hcl:"concurrency,optional"`
	Progress    *ProgressConfigBlock `hcl:"progress,block"`
	Messages    *MessagesConfigBlock `hcl:"messages,block"`
	Outputs     []*OutputConfigBlock `hcl:"output,block"`
	Layers      []*LayerConfigBlock  `hcl:"layer,block"`
	Worlds      []*WorldConfigBlock  `hcl:"world,block"`
}

type ProgressConfigBlock struct {
	IntervalMs     int `hcl:"interval_ms,optional"`
	StallThreshold int `hcl:"stall_threshold,optional"`
	CPSWindow      int `hcl:"cps_window,optional"`
}

type MessagesConfigBlock struct {
	ProgressChat     string `hcl:"progress_chat,optional"`
	ProgressStatus   string `hcl:"progress_status,optional"`
	ETAUnknown       string `hcl:"eta_unknown,optional"`
	RenderStalled    string `hcl:"render_stalled,optional"`
	DiscoveryFailed  string `hcl:"discovery_failed,optional"`
	ObtainingChunks  string `hcl:"obtaining_chunks,optional"`
	FoundTotalChunks string `hcl:"found_total_chunks,optional"`
	RadiusStarting   string `hcl:"radius_starting,optional"`
	RadiusFinished   string `hcl:"radius_finished,optional"`
	RadiusCancelled  string `hcl:"radius_cancelled,optional"`
	FullStarting     string `hcl:"full_starting,optional"`
	FullFinished     string `hcl:"full_finished,optional"`
	FullCancelled    string `hcl:"full_cancelled,optional"`
}

type OutputConfigBlock struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
	// Listen serves the live progress page on this address when set.
	Listen string `hcl:"listen,optional"`
}

type LayerConfigBlock struct {
	Name   string `hcl:"name,label"`
	Render string `hcl:"render"`
	// Opacity fades the layer's tiles; unset or 1 draws them opaque.
	Opacity float64 `hcl:"opacity,optional"`
}

type WorldConfigBlock struct {
	Name   string   `hcl:"name,label"`
	Path   string   `hcl:"path"`
	Output string   `hcl:"output"`
	Layers []string `hcl:"layers"`
	// Meta is where the known regions of the world are kept. Defaults to
	// <output>/tiles/<world>/render.toml.
	Meta string `hcl:"meta,optional"`
}

var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	err := hclsimple.DecodeFile(path, newHCLEvalContext(), &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, cfg.validate()
}

// ParseConfig decodes HCL source; filename is only used in diagnostics.
func ParseConfig(filename string, src []byte) (*Config, error) {
	var cfg Config
	err := hclsimple.Decode(filename, src, newHCLEvalContext(), &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	for _, w := range c.Worlds {
		if _, err := c.Output(w.Output); err != nil {
			return fmt.Errorf("world %s: %w", w.Name, err)
		}
		for _, l := range w.Layers {
			if _, err := c.Layer(l); err != nil {
				return fmt.Errorf("world %s: %w", w.Name, err)
			}
		}
	}
	return nil
}

func (c *Config) World(name string) (*WorldConfigBlock, error) {
	for _, w := range c.Worlds {
		if w.Name == name {
			return w, nil
		}
	}
	return nil, fmt.Errorf("unknown world %q", name)
}

func (c *Config) Output(name string) (*OutputConfigBlock, error) {
	for _, o := range c.Outputs {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("unknown output %q", name)
}

func (c *Config) Layer(name string) (*LayerConfigBlock, error) {
	for _, l := range c.Layers {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown layer %q", name)
}

// ProgressConfig converts the progress block; unset values keep their defaults.
func (c *Config) ProgressConfig() ProgressConfig {
	var pc ProgressConfig
	if c.Progress != nil {
		pc.Interval = time.Duration(c.Progress.IntervalMs) * time.Millisecond
		pc.StallThreshold = c.Progress.StallThreshold
		pc.Window = c.Progress.CPSWindow
	}
	return pc.withDefaults()
}

// MessageTemplates returns the default messages with any configured overrides.
func (c *Config) MessageTemplates() *Messages {
	msgs := DefaultMessages()
	b := c.Messages
	if b == nil {
		return msgs
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&msgs.ProgressChat, b.ProgressChat)
	override(&msgs.ProgressStatus, b.ProgressStatus)
	override(&msgs.ETAUnknown, b.ETAUnknown)
	override(&msgs.RenderStalled, b.RenderStalled)
	override(&msgs.DiscoveryFailed, b.DiscoveryFailed)
	override(&msgs.ObtainingChunks, b.ObtainingChunks)
	override(&msgs.FoundTotalChunks, b.FoundTotalChunks)
	override(&msgs.RadiusStarting, b.RadiusStarting)
	override(&msgs.RadiusFinished, b.RadiusFinished)
	override(&msgs.RadiusCancelled, b.RadiusCancelled)
	override(&msgs.FullStarting, b.FullStarting)
	override(&msgs.FullFinished, b.FullFinished)
	override(&msgs.FullCancelled, b.FullCancelled)
	return msgs
}
