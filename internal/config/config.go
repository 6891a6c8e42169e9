package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/mapgen"
	"github.com/mitchelldurbincs/FlagWars/internal/match"
)

// Config holds all configuration for the application
type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Server  ServerConfig  `mapstructure:"server"`
	Results ResultsConfig `mapstructure:"results"`
}

// GameConfig holds the rules a new match is created with
type GameConfig struct {
	Map        MapConfig        `mapstructure:"map"`
	Terrain    TerrainConfig    `mapstructure:"terrain"`
	Generation GenerationConfig `mapstructure:"generation"`
	FogOfWar   FogOfWarConfig   `mapstructure:"fog_of_war"`
	Match      MatchConfig      `mapstructure:"match"`
}

// MapConfig holds terrain generation settings
type MapConfig struct {
	Width             int `mapstructure:"width"`
	Height            int `mapstructure:"height"`
	Towers            int `mapstructure:"towers"`
	Walls             int `mapstructure:"walls"`
	Mountains         int `mapstructure:"mountains"`
	Swamps            int `mapstructure:"swamps"`
	MinBaseSpacing    int `mapstructure:"min_base_spacing"`
	EdgeMargin        int `mapstructure:"edge_margin"`
	PlacementAttempts int `mapstructure:"placement_attempts"`
}

// TerrainConfig holds capture thresholds for fortified terrain
type TerrainConfig struct {
	WallThreshold     int `mapstructure:"wall_threshold"`
	TowerThresholdMin int `mapstructure:"tower_threshold_min"`
	TowerThresholdMax int `mapstructure:"tower_threshold_max"`
}

// GenerationConfig holds soldier production settings
type GenerationConfig struct {
	PlainPeriod         int `mapstructure:"plain_period"`
	InitialBaseSoldiers int `mapstructure:"initial_base_soldiers"`
}

// FogOfWarConfig holds fog of war settings
type FogOfWarConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	VisionRadius int  `mapstructure:"vision_radius"`
}

// MatchConfig holds lobby settings
type MatchConfig struct {
	MaxPlayers     int `mapstructure:"max_players"`
	MinPlayers     int `mapstructure:"min_players"`
	CountdownTicks int `mapstructure:"countdown_ticks"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	TickIntervalMs   int    `mapstructure:"tick_interval_ms"`
	MaxMatches       int    `mapstructure:"max_matches"`
	Parallelism      int    `mapstructure:"parallelism"`
	CleanupIntervalS int    `mapstructure:"cleanup_interval_s"`
	FinishedLingerS  int    `mapstructure:"finished_linger_s"`
	IdleTimeoutS     int    `mapstructure:"idle_timeout_s"`
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Transport TransportConfig `mapstructure:"transport"`
}

// HTTPConfig holds the websocket listener settings
type HTTPConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GRPCConfig holds the admin listener settings
type GRPCConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
}

// TransportConfig holds per-connection limits
type TransportConfig struct {
	SendBuffer      int     `mapstructure:"send_buffer"`
	OrdersPerSecond float64 `mapstructure:"orders_per_second"`
	OrderBurst      int     `mapstructure:"order_burst"`
	ReadLimit       int64   `mapstructure:"read_limit"`
	PongWaitS       int     `mapstructure:"pong_wait_s"`
}

// ResultsConfig selects where finished match results go
type ResultsConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

var (
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Map defaults
	v.SetDefault("game.map.width", 20)
	v.SetDefault("game.map.height", 15)
	v.SetDefault("game.map.towers", 5)
	v.SetDefault("game.map.walls", 10)
	v.SetDefault("game.map.mountains", 8)
	v.SetDefault("game.map.swamps", 6)
	v.SetDefault("game.map.min_base_spacing", 5)
	v.SetDefault("game.map.edge_margin", 2)
	v.SetDefault("game.map.placement_attempts", 1000)

	v.SetDefault("game.terrain.wall_threshold", 3)
	v.SetDefault("game.terrain.tower_threshold_min", 5)
	v.SetDefault("game.terrain.tower_threshold_max", 20)

	v.SetDefault("game.generation.plain_period", 15)
	v.SetDefault("game.generation.initial_base_soldiers", 10)

	v.SetDefault("game.fog_of_war.enabled", true)
	v.SetDefault("game.fog_of_war.vision_radius", 2)

	v.SetDefault("game.match.max_players", 8)
	v.SetDefault("game.match.min_players", 2)
	v.SetDefault("game.match.countdown_ticks", 5)

	// Server defaults
	v.SetDefault("server.tick_interval_ms", 600)
	v.SetDefault("server.max_matches", 100)
	v.SetDefault("server.parallelism", 8)
	v.SetDefault("server.cleanup_interval_s", 30)
	v.SetDefault("server.finished_linger_s", 30)
	v.SetDefault("server.idle_timeout_s", 600)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.allowed_origins", []string{})

	v.SetDefault("server.grpc.host", "0.0.0.0")
	v.SetDefault("server.grpc.port", 50051)
	v.SetDefault("server.grpc.enable_reflection", true)
	v.SetDefault("server.grpc.graceful_shutdown_delay", 2)

	v.SetDefault("server.transport.send_buffer", 256)
	v.SetDefault("server.transport.orders_per_second", 20)
	v.SetDefault("server.transport.order_burst", 40)
	v.SetDefault("server.transport.read_limit", 4096)
	v.SetDefault("server.transport.pong_wait_s", 60)

	// Results defaults
	v.SetDefault("results.driver", "memory")
	v.SetDefault("results.dsn", "")
}

// Init initializes the configuration
func Init(configPath string) error {
	nv := viper.New()
	setViperDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(".")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/flagwars")
	}

	nv.SetEnvPrefix("FLAGWARS")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil {
		// An explicit path that does not exist falls back to defaults, as
		// does a missing file in the default locations.
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound)
		if configPath != "" {
			_, statErr := os.Stat(configPath)
			missing = errors.Is(statErr, fs.ErrNotExist)
		}
		if !missing {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c, err := decode(nv)
	if err != nil {
		return err
	}

	mu.Lock()
	v, cfg = nv, c
	mu.Unlock()
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Get returns the current config. The value is replaced, never mutated, on
// reload, so callers may keep the pointer for a consistent view.
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded config
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}
	nv := GetViper()

	envFile := fmt.Sprintf("config.%s.yaml", env)
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	// The base file stays the one WatchConfig follows.
	base := nv.ConfigFileUsed()
	nv.SetConfigFile(envFile)
	err := nv.MergeInConfig()
	if base != "" {
		nv.SetConfigFile(base)
	}
	if err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}
	return reload(nv)
}

func reload(nv *viper.Viper) error {
	c, err := decode(nv)
	if err != nil {
		return err
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
	return nil
}

// Set allows runtime config updates. Values that fail validation are
// rejected and the previous config stays current.
func Set(key string, value interface{}) error {
	nv := GetViper()
	nv.Set(key, value)
	return reload(nv)
}

// GetString gets a string value from config
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return GetViper().GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return GetViper().GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return GetViper().ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. onChange receives
// the reload error, if any; a failed reload keeps the previous config.
// Running matches never see a reload: they copied their rules at creation.
func WatchConfig(onChange func(*Config, error)) {
	nv := GetViper()
	nv.OnConfigChange(func(e fsnotify.Event) {
		err := reload(nv)
		if onChange != nil {
			onChange(Get(), err)
		}
	})
	nv.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	m := c.Game.Map
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("game.map dimensions must be positive")
	}
	if m.Towers < 0 || m.Walls < 0 || m.Mountains < 0 || m.Swamps < 0 {
		return fmt.Errorf("game.map feature counts must be non-negative")
	}
	if m.MinBaseSpacing < 1 {
		return fmt.Errorf("game.map.min_base_spacing must be at least 1")
	}
	if m.EdgeMargin < 0 {
		return fmt.Errorf("game.map.edge_margin must be non-negative")
	}
	if m.PlacementAttempts <= 0 {
		return fmt.Errorf("game.map.placement_attempts must be positive")
	}

	t := c.Game.Terrain
	if t.WallThreshold < 1 {
		return fmt.Errorf("game.terrain.wall_threshold must be at least 1")
	}
	if t.TowerThresholdMin < 1 || t.TowerThresholdMax < t.TowerThresholdMin {
		return fmt.Errorf("game.terrain tower thresholds must satisfy 1 <= min <= max")
	}

	if err := c.MatchSettings().Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}

	lm := c.Game.Match
	if lm.MinPlayers < 1 {
		return fmt.Errorf("game.match.min_players must be at least 1")
	}
	if lm.MaxPlayers < lm.MinPlayers {
		return fmt.Errorf("game.match.max_players must not be below game.match.min_players")
	}
	if lm.CountdownTicks < 0 {
		return fmt.Errorf("game.match.countdown_ticks must be non-negative")
	}

	s := c.Server
	if s.TickIntervalMs <= 0 {
		return fmt.Errorf("server.tick_interval_ms must be positive")
	}
	if s.MaxMatches <= 0 {
		return fmt.Errorf("server.max_matches must be positive")
	}
	if s.Parallelism <= 0 {
		return fmt.Errorf("server.parallelism must be positive")
	}
	if s.CleanupIntervalS <= 0 {
		return fmt.Errorf("server.cleanup_interval_s must be positive")
	}
	if s.FinishedLingerS < 0 || s.IdleTimeoutS < 0 {
		return fmt.Errorf("server linger and idle timeouts must be non-negative")
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level must be one of debug, info, warn, error")
	}
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("server.log_format must be console or json")
	}
	if s.HTTP.Port <= 0 || s.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port must be between 1 and 65535")
	}
	if s.GRPC.Port <= 0 || s.GRPC.Port > 65535 {
		return fmt.Errorf("server.grpc.port must be between 1 and 65535")
	}
	if s.GRPC.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.grpc.graceful_shutdown_delay must be non-negative")
	}
	if s.Transport.SendBuffer <= 0 {
		return fmt.Errorf("server.transport.send_buffer must be positive")
	}
	if s.Transport.OrdersPerSecond <= 0 || s.Transport.OrderBurst <= 0 {
		return fmt.Errorf("server.transport order rate and burst must be positive")
	}
	if s.Transport.ReadLimit <= 0 || s.Transport.PongWaitS <= 0 {
		return fmt.Errorf("server.transport read limit and pong wait must be positive")
	}

	switch c.Results.Driver {
	case "", "memory":
	case "postgres":
		if c.Results.DSN == "" {
			return fmt.Errorf("results.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("results.driver must be memory or postgres, got %q", c.Results.Driver)
	}
	return nil
}

// MatchSettings projects the config into the engine's rule set
func (c *Config) MatchSettings() game.Settings {
	return game.Settings{
		PlainPeriod:         c.Game.Generation.PlainPeriod,
		InitialBaseSoldiers: c.Game.Generation.InitialBaseSoldiers,
		FogOfWar:            c.Game.FogOfWar.Enabled,
		VisionRadius:        c.Game.FogOfWar.VisionRadius,
	}
}

// MapConfig projects the config into generator settings with one base
// slot per possible player.
func (c *Config) MapConfig() mapgen.MapConfig {
	m, t := c.Game.Map, c.Game.Terrain
	return mapgen.MapConfig{
		Width:             m.Width,
		Height:            m.Height,
		BaseSlots:         c.Game.Match.MaxPlayers,
		Towers:            m.Towers,
		Walls:             m.Walls,
		Mountains:         m.Mountains,
		Swamps:            m.Swamps,
		MinBaseSpacing:    m.MinBaseSpacing,
		EdgeMargin:        m.EdgeMargin,
		WallThreshold:     t.WallThreshold,
		TowerThresholdMin: t.TowerThresholdMin,
		TowerThresholdMax: t.TowerThresholdMax,
		PlacementAttempts: m.PlacementAttempts,
	}
}

// MatchConfig is the full rule set copied into each new match
func (c *Config) MatchConfig() match.Config {
	return match.Config{
		Map:            c.MapConfig(),
		Settings:       c.MatchSettings(),
		MinPlayers:     c.Game.Match.MinPlayers,
		MaxPlayers:     c.Game.Match.MaxPlayers,
		CountdownTicks: c.Game.Match.CountdownTicks,
	}
}

// RegistryConfig projects the server limits for the match registry
func (c *Config) RegistryConfig() match.RegistryConfig {
	s := c.Server
	return match.RegistryConfig{
		MaxMatches:      s.MaxMatches,
		FinishedLinger:  time.Duration(s.FinishedLingerS) * time.Second,
		IdleTimeout:     time.Duration(s.IdleTimeoutS) * time.Second,
		CleanupInterval: time.Duration(s.CleanupIntervalS) * time.Second,
	}
}

// TickInterval is the scheduler period
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Server.TickIntervalMs) * time.Millisecond
}
