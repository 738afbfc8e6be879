package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"battlesim/internal/combat"
	"battlesim/internal/predict"
	"battlesim/internal/realtime"
)

const settingsName = "simsvc"

// Settings are the engine knobs. Values come from defaults, then an
// optional simsvc.yaml, then BATTLESIM_* environment variables.
type Settings struct {
	LogLevel string           `mapstructure:"logLevel" env:"LOG_LEVEL"`
	Seed     int64            `mapstructure:"seed" env:"SEED"`
	Battle   BattleSettings   `mapstructure:"battle" envPrefix:"BATTLE_"`
	Predict  PredictSettings  `mapstructure:"predict" envPrefix:"PREDICT_"`
	Realtime RealtimeSettings `mapstructure:"realtime" envPrefix:"REALTIME_"`
	Terrain  TerrainSettings  `mapstructure:"terrain" envPrefix:"TERRAIN_"`
}

type BattleSettings struct {
	MaxRounds       int     `mapstructure:"maxRounds" env:"MAX_ROUNDS"`
	SkillCastChance float64 `mapstructure:"skillCastChance" env:"SKILL_CAST_CHANCE"`
	RoundDuration   float64 `mapstructure:"roundDuration" env:"ROUND_DURATION"`
}

type PredictSettings struct {
	Simulations int     `mapstructure:"simulations" env:"SIMULATIONS"`
	Variance    float64 `mapstructure:"variance" env:"VARIANCE"`
	Workers     int     `mapstructure:"workers" env:"WORKERS"`
}

type RealtimeSettings struct {
	TickInterval time.Duration `mapstructure:"tickInterval" env:"TICK_INTERVAL"`
	MaxTicks     int           `mapstructure:"maxTicks" env:"MAX_TICKS"`
	TickDuration float64       `mapstructure:"tickDuration" env:"TICK_DURATION"`
}

type TerrainSettings struct {
	Field    bool   `mapstructure:"field" env:"FIELD"`
	Fortress bool   `mapstructure:"fortress" env:"FORTRESS"`
	Weather  string `mapstructure:"weather" env:"WEATHER"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("seed", 0)

	v.SetDefault("battle.maxRounds", combat.DefaultMaxRounds)
	v.SetDefault("battle.skillCastChance", combat.DefaultSkillCastChance)
	v.SetDefault("battle.roundDuration", combat.DefaultRoundDuration)

	v.SetDefault("predict.simulations", predict.DefaultSimulationCount)
	v.SetDefault("predict.variance", 0.1)
	v.SetDefault("predict.workers", 0)

	v.SetDefault("realtime.tickInterval", realtime.DefaultTickInterval)
	v.SetDefault("realtime.maxTicks", realtime.DefaultMaxTicks)
	v.SetDefault("realtime.tickDuration", realtime.DefaultTickDuration)

	v.SetDefault("terrain.field", true)
	v.SetDefault("terrain.fortress", false)
	v.SetDefault("terrain.weather", string(combat.WeatherClear))
}

// LoadSettings reads simsvc.yaml from dir if present and applies environment
// overrides. A missing file is not an error.
func LoadSettings(dir string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(settingsName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := ApplyEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) terrain() (combat.Terrain, error) {
	w, err := combat.ParseWeather(s.Terrain.Weather)
	if err != nil {
		return combat.Terrain{}, err
	}
	return combat.Terrain{
		FieldBattle:    s.Terrain.Field,
		FortressBattle: s.Terrain.Fortress,
		Weather:        w,
	}, nil
}

func (s Settings) BattleConfig() (combat.Config, error) {
	t, err := s.terrain()
	if err != nil {
		return combat.Config{}, err
	}
	cfg := combat.Config{
		MaxRounds:       s.Battle.MaxRounds,
		SkillCastChance: s.Battle.SkillCastChance,
		RoundDuration:   s.Battle.RoundDuration,
		Seed:            s.Seed,
		Terrain:         t,
	}
	return cfg, cfg.Validate()
}

func (s Settings) PredictConfig() (predict.Config, error) {
	t, err := s.terrain()
	if err != nil {
		return predict.Config{}, err
	}
	return predict.Config{
		SimulationCount: s.Predict.Simulations,
		Variance:        s.Predict.Variance,
		Workers:         s.Predict.Workers,
		Seed:            s.Seed,
		MaxRounds:       s.Battle.MaxRounds,
		RoundDuration:   s.Battle.RoundDuration,
		Terrain:         t,
	}, nil
}

func (s Settings) RealtimeConfig() (realtime.Config, error) {
	t, err := s.terrain()
	if err != nil {
		return realtime.Config{}, err
	}
	cfg := realtime.Config{
		TickInterval:  s.Realtime.TickInterval,
		MaxTicks:      s.Realtime.MaxTicks,
		TickDuration:  s.Realtime.TickDuration,
		RoundDuration: s.Battle.RoundDuration,
		Seed:          s.Seed,
		Terrain:       t,
	}
	return cfg, cfg.Validate()
}
