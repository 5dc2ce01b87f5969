// Package config loads every tunable constant spec.md names (grid
// dimensions, car population, GA and PPO hyperparameters) from a single YAML
// file via viper. Adapted from the teacher's reinforcement.TrainingConfig /
// FromYaml: this repo only ever needs one configuration shape, so the
// teacher's OuterConfig.Def two-hop indirection (solving a multi-algorithm
// config problem) is dropped in favor of a single mapstructure-tagged
// struct loaded directly.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Grid    GridConfig    `mapstructure:"grid"`
	Cars    CarsConfig    `mapstructure:"cars"`
	Genetic GeneticConfig `mapstructure:"genetic"`
	PPO     PPOConfig     `mapstructure:"ppo"`
}

type GridConfig struct {
	N int `mapstructure:"n"`
	M int `mapstructure:"m"`
	T int `mapstructure:"t"`
}

type CarsConfig struct {
	NumCars        int     `mapstructure:"numCars"`
	MaxTimeToStart int     `mapstructure:"maxTimeToStart"`
	NoiseCarPath   float64 `mapstructure:"noiseCarPath"`
}

type GeneticConfig struct {
	PopulationSize int     `mapstructure:"populationSize"`
	MutationRate   float64 `mapstructure:"mutationRate"`
	Generations    int     `mapstructure:"generations"`
	TournamentSize int     `mapstructure:"tournamentSize"`
	Workers        int     `mapstructure:"workers"`
}

type PPOConfig struct {
	BatchSize     int `mapstructure:"batchSize"`
	Epochs        int `mapstructure:"epochs"`
	Simulations   int `mapstructure:"simulations"`
	MaxIterations int `mapstructure:"maxIterations"`
}

// Default returns the known-good defaults spec.md §6 lists.
func Default() *Config {
	return &Config{
		Grid:    GridConfig{N: 8, M: 8, T: 40},
		Cars:    CarsConfig{NumCars: 350, MaxTimeToStart: 4, NoiseCarPath: 0.03},
		Genetic: GeneticConfig{PopulationSize: 600, MutationRate: 0.025, Generations: 200, TournamentSize: 50, Workers: 1},
		PPO:     PPOConfig{BatchSize: 20, Epochs: 5, Simulations: 6, MaxIterations: 100},
	}
}

// FromYaml loads a Config from a YAML file, falling back to Default for any
// field the file omits.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))

	cfg := Default()
	setDefaults(vp, cfg)

	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

func setDefaults(vp *viper.Viper, cfg *Config) {
	vp.SetDefault("grid.n", cfg.Grid.N)
	vp.SetDefault("grid.m", cfg.Grid.M)
	vp.SetDefault("grid.t", cfg.Grid.T)
	vp.SetDefault("cars.numCars", cfg.Cars.NumCars)
	vp.SetDefault("cars.maxTimeToStart", cfg.Cars.MaxTimeToStart)
	vp.SetDefault("cars.noiseCarPath", cfg.Cars.NoiseCarPath)
	vp.SetDefault("genetic.populationSize", cfg.Genetic.PopulationSize)
	vp.SetDefault("genetic.mutationRate", cfg.Genetic.MutationRate)
	vp.SetDefault("genetic.generations", cfg.Genetic.Generations)
	vp.SetDefault("genetic.tournamentSize", cfg.Genetic.TournamentSize)
	vp.SetDefault("genetic.workers", cfg.Genetic.Workers)
	vp.SetDefault("ppo.batchSize", cfg.PPO.BatchSize)
	vp.SetDefault("ppo.epochs", cfg.PPO.Epochs)
	vp.SetDefault("ppo.simulations", cfg.PPO.Simulations)
	vp.SetDefault("ppo.maxIterations", cfg.PPO.MaxIterations)
}
