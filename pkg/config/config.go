package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"organtour/pkg/geom"
)

// Config holds the application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	Ticker     TickerConfig     `yaml:"ticker"`
	Display    DisplayConfig    `yaml:"display"`
	Exhibit    ExhibitConfig    `yaml:"exhibit"`
	Locomotion LocomotionConfig `yaml:"locomotion"`
	Audio      AudioConfig      `yaml:"audio"`
	Viewpoint  ViewpointConfig  `yaml:"viewpoint"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	Events LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
	// Ephemeral keeps preferences and view history in memory only.
	Ephemeral     bool     `yaml:"ephemeral"`
	ViewRetention Duration `yaml:"view_retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TickerConfig holds frame loop settings.
type TickerConfig struct {
	FrameInterval Duration `yaml:"frame_interval"`
}

// DisplayConfig holds settings for the shared information panel.
type DisplayConfig struct {
	FadeDuration   Duration   `yaml:"fade_duration"`
	Reanchor       bool       `yaml:"reanchor"`
	AnchorDistance Distance   `yaml:"anchor_distance"`
	AnchorHeight   Distance   `yaml:"anchor_height"`
	FaceViewpoint  bool       `yaml:"face_viewpoint"`
	FloorHeight    Distance   `yaml:"floor_height"`
	AnchorRoot     *geom.Vec3 `yaml:"anchor_root,omitempty"`
	CloseHint      string     `yaml:"close_hint"`
}

// ExhibitConfig holds the hotspot table.
type ExhibitConfig struct {
	// HidePromptsWhileDisplayed hides every prompt while the panel is visible.
	HidePromptsWhileDisplayed bool            `yaml:"hide_prompts_while_displayed"`
	DefaultPromptDistance     Distance        `yaml:"default_prompt_distance"`
	DefaultAutoHideDistance   Distance        `yaml:"default_auto_hide_distance"`
	PromptText                string          `yaml:"prompt_text"`
	Hotspots                  []HotspotConfig `yaml:"hotspots"`
}

// HotspotConfig describes one point of interest.
type HotspotConfig struct {
	Name             string     `yaml:"name"`
	Title            string     `yaml:"title"`
	Description      string     `yaml:"description"`
	Position         geom.Vec3  `yaml:"position"`
	PromptOffset     *geom.Vec3 `yaml:"prompt_offset,omitempty"`
	PromptDistance   Distance   `yaml:"prompt_distance,omitempty"`
	AutoHideDistance Distance   `yaml:"auto_hide_distance,omitempty"`
	Disabled         bool       `yaml:"disabled,omitempty"`
}

// LocomotionConfig names the movement subsystems the coordinator switches.
type LocomotionConfig struct {
	DefaultMode         int      `yaml:"default_mode"` // 0 teleport, 1 smooth
	TeleportSurfaces    []string `yaml:"teleport_surfaces"`
	MoveBindings        []string `yaml:"move_bindings"`
	TurnDefault         int      `yaml:"turn_default"` // 0 snap, 1 continuous
	ContinuousTurnSpeed float64  `yaml:"continuous_turn_speed"`
}

// AudioConfig holds cue playback settings.
type AudioConfig struct {
	Enabled bool      `yaml:"enabled"`
	Volume  int       `yaml:"volume"` // 0..100
	Cues    CueConfig `yaml:"cues"`
}

// CueConfig holds the sound file for each cue. Empty paths are skipped.
type CueConfig struct {
	Hover string `yaml:"hover"`
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// ViewpointConfig selects where the head pose comes from.
type ViewpointConfig struct {
	Provider  string    `yaml:"provider"` // "tracked", "walker"
	Start     geom.Vec3 `yaml:"start"`
	EyeHeight Distance  `yaml:"eye_height"`
	WalkSpeed float64   `yaml:"walk_speed"` // m/s
	Dwell     Duration  `yaml:"dwell"`
}

// Viewpoint providers.
const (
	ViewpointTracked = "tracked"
	ViewpointWalker  = "walker"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "./logs/events.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:          "./data/organtour.db",
			ViewRetention: Duration(90 * Day),
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Ticker: TickerConfig{
			FrameInterval: Duration(20 * time.Millisecond),
		},
		Display: DisplayConfig{
			FadeDuration:   Duration(150 * time.Millisecond),
			Reanchor:       true,
			AnchorDistance: Distance(0.8),
			AnchorHeight:   Distance(1.35),
			FaceViewpoint:  true,
			CloseHint:      "Press the info button to close",
		},
		Exhibit: ExhibitConfig{
			DefaultPromptDistance:   Distance(1.2),
			DefaultAutoHideDistance: Distance(2.4),
			PromptText:              "Press the A button to see the information",
			Hotspots:                defaultHotspots(),
		},
		Locomotion: LocomotionConfig{
			DefaultMode:         0,
			TeleportSurfaces:    []string{"floor", "platform"},
			MoveBindings:        []string{"left_hand_move", "right_hand_move"},
			TurnDefault:         0,
			ContinuousTurnSpeed: 60,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  80,
			Cues: CueConfig{
				Hover: "./assets/audio/hover.wav",
				Open:  "./assets/audio/open.wav",
				Close: "./assets/audio/close.wav",
			},
		},
		Viewpoint: ViewpointConfig{
			Provider:  ViewpointTracked,
			Start:     geom.V(0, 0, -3),
			EyeHeight: Distance(1.6),
			WalkSpeed: 0.7,
			Dwell:     Duration(6 * time.Second),
		},
	}
}

func defaultHotspots() []HotspotConfig {
	offset := func(x, y, z float64) *geom.Vec3 {
		v := geom.V(x, y, z)
		return &v
	}
	return []HotspotConfig{
		{
			Name:         "heart",
			Title:        "Heart",
			Description:  "Pumps blood to carry oxygen and nutrients through the whole body. Beats 60 to 100 times per minute at rest.",
			Position:     geom.V(-0.1, 1.3, 0),
			PromptOffset: offset(0, 0.35, 0),
		},
		{
			Name:         "lungs",
			Title:        "Lungs",
			Description:  "Exchange oxygen and carbon dioxide. The right lung has three lobes and the left two, leaving room for the heart.",
			Position:     geom.V(0.9, 1.35, 0.6),
			PromptOffset: offset(0, 0.4, 0),
		},
		{
			Name:         "liver",
			Title:        "Liver",
			Description:  "Metabolizes nutrients, filters toxins and produces bile to digest fats. It can regrow part of its mass after damage.",
			Position:     geom.V(-1.2, 1.1, 1.4),
			PromptOffset: offset(0.05, 0.25, 0),
		},
		{
			Name:         "kidneys",
			Title:        "Kidneys",
			Description:  "Filter the blood and produce urine to remove waste. They also regulate blood pressure and fluid balance.",
			Position:     geom.V(0.6, 1.0, 2.8),
			PromptOffset: offset(-0.02, 0.25, 0),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// A hotspots list in the file replaces the default table as a whole.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overlays environment overrides. They are never written back to disk.
func applyEnv(cfg *Config) {
	if addr := os.Getenv("ORGANTOUR_ADDR"); addr != "" {
		cfg.Server.Address = addr
	}
	if path := os.Getenv("ORGANTOUR_DB"); path != "" {
		cfg.DB.Path = path
	}
}

var reWinEnv = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// expandPath resolves $VAR, ${VAR} and %VAR% references.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = reWinEnv.ReplaceAllStringFunc(p, func(m string) string {
		return os.Getenv(m[1 : len(m)-1])
	})
	return os.ExpandEnv(p)
}

func expandPaths(cfg *Config) {
	cfg.DB.Path = expandPath(cfg.DB.Path)
	cfg.Log.Server.Path = expandPath(cfg.Log.Server.Path)
	cfg.Log.Events.Path = expandPath(cfg.Log.Events.Path)
	cfg.Audio.Cues.Hover = expandPath(cfg.Audio.Cues.Hover)
	cfg.Audio.Cues.Open = expandPath(cfg.Audio.Cues.Open)
	cfg.Audio.Cues.Close = expandPath(cfg.Audio.Cues.Close)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Organ Tour Configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: mm, cm, m (meters), km, ft

`)
	data = append(header, data...)

	// Inject comments for enum fields
	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: tracked, walker\n${1}provider:"))

	reMode := regexp.MustCompile(`(?m)^(\s+)default_mode:`)
	data = reMode.ReplaceAll(data, []byte("${1}# Options: 0 (teleport), 1 (smooth)\n${1}default_mode:"))

	reTurn := regexp.MustCompile(`(?m)^(\s+)turn_default:`)
	data = reTurn.ReplaceAll(data, []byte("${1}# Options: 0 (snap), 1 (continuous)\n${1}turn_default:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
