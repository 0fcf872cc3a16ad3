// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Energy     EnergyConfig     `yaml:"energy"`
	Head       HeadConfig       `yaml:"head"`
	Food       FoodConfig       `yaml:"food"`
	Aging      AgingConfig      `yaml:"aging"`
	Scent      ScentConfig      `yaml:"scent"`
	Vision     VisionConfig     `yaml:"vision"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Species    SpeciesConfig    `yaml:"species"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Engine     EngineConfig     `yaml:"engine"`
}

// WorldConfig holds hex grid dimensions and static obstacles.
type WorldConfig struct {
	Rows     int  `yaml:"rows"`
	Columns  int  `yaml:"columns"`
	AddWalls bool `yaml:"add_walls"`
}

// PopulationConfig holds initial population and body plan parameters.
type PopulationConfig struct {
	StartingSnakes     int     `yaml:"starting_snakes"`
	StartingFood       int     `yaml:"starting_food"`
	StartEnergy        float64 `yaml:"start_energy"`
	GenePoolSize       int     `yaml:"gene_pool_size"`
	MaxGenes           int     `yaml:"max_genes"`
	DuplicateKindLimit int     `yaml:"duplicate_kind_limit"`
	SizeToSplit        int     `yaml:"size_to_split"`
	// NeuralBrainRatio is the fraction of founders seeded with a neural
	// controller; the rest get the random baseline policy.
	NeuralBrainRatio float64 `yaml:"neural_brain_ratio"`
}

// EnergyConfig holds shared energy economics parameters.
type EnergyConfig struct {
	MoveCost           float64 `yaml:"move_cost"`
	WaitCost           float64 `yaml:"wait_cost"`
	NewSegmentCost     float64 `yaml:"new_segment_cost"`
	PlantEnergyContent float64 `yaml:"plant_energy_content"`
	MeatEnergyContent  float64 `yaml:"meat_energy_content"`
}

// HeadConfig holds the metabolic baseline every snake starts with.
// Per-segment contributions are added on top as the body grows.
type HeadConfig struct {
	Mobility              float64 `yaml:"mobility"`
	MoveCost              float64 `yaml:"move_cost"`
	BasicCost             float64 `yaml:"basic_cost"`
	EnergyProduction      float64 `yaml:"energy_production"`
	PlantProcessingSpeed  float64 `yaml:"plant_processing_speed"`
	MeatProcessingSpeed   float64 `yaml:"meat_processing_speed"`
	MaxPlantsInStomach    float64 `yaml:"max_plants_in_stomach"`
	MaxMeatInStomach      float64 `yaml:"max_meat_in_stomach"`
	MaxEnergy             float64 `yaml:"max_energy"`
	GrowthProductionSpeed float64 `yaml:"growth_production_speed"`
}

// FoodConfig holds food spawning and decay parameters.
type FoodConfig struct {
	PerStep               int     `yaml:"per_step"`
	PlantMatterPerSegment float64 `yaml:"plant_matter_per_segment"`
	LifetimeTicks         int     `yaml:"lifetime_ticks"`
	DecayCadence          int     `yaml:"decay_cadence"`
	FertilityScale        float64 `yaml:"fertility_scale"`
}

// AgingConfig holds age progression parameters.
type AgingConfig struct {
	MaxAge  int `yaml:"max_age"`
	Cadence int `yaml:"cadence"`
	AgeStep int `yaml:"age_step"`
}

// ScentConfig holds scent field parameters.
type ScentConfig struct {
	Enabled           bool    `yaml:"enabled"`
	DiffusionRate     float64 `yaml:"diffusion_rate"`
	DispersionPerStep float64 `yaml:"dispersion_per_step"`
	Cap               float64 `yaml:"cap"`
}

// VisionRanges holds per-direction ray lengths for one vision category.
type VisionRanges struct {
	Enabled    bool `yaml:"enabled"`
	FrontRange int  `yaml:"front_range"`
	LeftRange  int  `yaml:"left_range"`
	RightRange int  `yaml:"right_range"`
}

// VisionConfig holds sensory input enable flags and ranges.
type VisionConfig struct {
	ScentSensingEnabled bool         `yaml:"scent_sensing_enabled"`
	ChaosInputEnabled   bool         `yaml:"chaos_input_enabled"`
	Plant               VisionRanges `yaml:"plant"`
	Meat                VisionRanges `yaml:"meat"`
	Obstacle            VisionRanges `yaml:"obstacle"`
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	ConnectionFlipChance        float64 `yaml:"connection_flip_chance"`
	WeightPerturbationChance    float64 `yaml:"weight_perturbation_chance"`
	WeightPerturbationRange     float64 `yaml:"weight_perturbation_range"`
	PerturbDisabledConnections  bool    `yaml:"perturb_disabled_connections"`
	WeightResetChance           float64 `yaml:"weight_reset_chance"`
	WeightResetRange            float64 `yaml:"weight_reset_range"`
	PerturbResetConnections     bool    `yaml:"perturb_reset_connections"`
	AddConnectionChance         float64 `yaml:"add_connection_chance"`
	AddNodeChance               float64 `yaml:"add_node_chance"`
	DnaMutationChance           float64 `yaml:"dna_mutation_chance"`
	ConnectionActiveProbability float64 `yaml:"connection_active_probability"`
}

// SpeciesConfig holds speciation parameters.
type SpeciesConfig struct {
	Threshold float64 `yaml:"threshold"`
	Cadence   int     `yaml:"cadence"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow  int `yaml:"stats_window"`
	FrameCadence int `yaml:"frame_cadence"`
}

// EngineConfig holds run loop parameters.
type EngineConfig struct {
	StopWhenExtinct bool `yaml:"stop_when_extinct"`
	EventBuffer     int  `yaml:"event_buffer"`
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics on error. Intended for tests.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Default returns the embedded default configuration.
func Default() *Config {
	return MustLoad("")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the simulation cannot run with.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.World.Rows <= 0 || c.World.Columns <= 0 {
		return fmt.Errorf("config: world dimensions must be positive, got %dx%d", c.World.Columns, c.World.Rows)
	}
	if c.Population.StartingSnakes < 0 || c.Population.StartingFood < 0 {
		return fmt.Errorf("config: starting population counts must not be negative")
	}
	if c.Population.GenePoolSize < 1 {
		return fmt.Errorf("config: gene_pool_size must be at least 1, got %d", c.Population.GenePoolSize)
	}
	if c.Population.MaxGenes < 1 {
		return fmt.Errorf("config: max_genes must be at least 1, got %d", c.Population.MaxGenes)
	}
	if c.Population.SizeToSplit < 2 {
		return fmt.Errorf("config: size_to_split must be at least 2, got %d", c.Population.SizeToSplit)
	}
	for _, cost := range []struct {
		name  string
		value float64
	}{
		{"energy.move_cost", c.Energy.MoveCost},
		{"energy.wait_cost", c.Energy.WaitCost},
		{"energy.new_segment_cost", c.Energy.NewSegmentCost},
		{"energy.plant_energy_content", c.Energy.PlantEnergyContent},
		{"energy.meat_energy_content", c.Energy.MeatEnergyContent},
		{"head.move_cost", c.Head.MoveCost},
		{"head.basic_cost", c.Head.BasicCost},
	} {
		if cost.value < 0 {
			return fmt.Errorf("config: %s must not be negative, got %g", cost.name, cost.value)
		}
	}
	if c.Head.MaxEnergy <= 0 {
		return fmt.Errorf("config: head.max_energy must be positive, got %g", c.Head.MaxEnergy)
	}
	if c.Food.PerStep < 0 {
		return fmt.Errorf("config: food.per_step must not be negative, got %d", c.Food.PerStep)
	}
	if c.Food.PlantMatterPerSegment <= 0 {
		return fmt.Errorf("config: food.plant_matter_per_segment must be positive, got %g", c.Food.PlantMatterPerSegment)
	}
	if c.Food.DecayCadence < 1 {
		return fmt.Errorf("config: food.decay_cadence must be at least 1, got %d", c.Food.DecayCadence)
	}
	if c.Aging.MaxAge <= 0 {
		return fmt.Errorf("config: aging.max_age must be positive, got %d", c.Aging.MaxAge)
	}
	if c.Aging.Cadence < 1 || c.Aging.AgeStep < 1 {
		return fmt.Errorf("config: aging cadence and step must be at least 1")
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"population.neural_brain_ratio", c.Population.NeuralBrainRatio},
		{"mutation.connection_flip_chance", c.Mutation.ConnectionFlipChance},
		{"mutation.weight_perturbation_chance", c.Mutation.WeightPerturbationChance},
		{"mutation.weight_reset_chance", c.Mutation.WeightResetChance},
		{"mutation.add_connection_chance", c.Mutation.AddConnectionChance},
		{"mutation.add_node_chance", c.Mutation.AddNodeChance},
		{"mutation.dna_mutation_chance", c.Mutation.DnaMutationChance},
		{"mutation.connection_active_probability", c.Mutation.ConnectionActiveProbability},
		{"scent.diffusion_rate", c.Scent.DiffusionRate},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config: %s must be within [0, 1], got %g", p.name, p.value)
		}
	}
	if c.Scent.DispersionPerStep < 0 {
		return fmt.Errorf("config: scent.dispersion_per_step must not be negative, got %g", c.Scent.DispersionPerStep)
	}
	if c.Scent.Cap <= 0 {
		return fmt.Errorf("config: scent.cap must be positive, got %g", c.Scent.Cap)
	}
	for _, v := range []struct {
		name   string
		ranges VisionRanges
	}{
		{"vision.plant", c.Vision.Plant},
		{"vision.meat", c.Vision.Meat},
		{"vision.obstacle", c.Vision.Obstacle},
	} {
		if !v.ranges.Enabled {
			continue
		}
		if v.ranges.FrontRange < 1 || v.ranges.LeftRange < 1 || v.ranges.RightRange < 1 {
			return fmt.Errorf("config: %s ranges must be at least 1 when enabled", v.name)
		}
	}
	if c.Species.Threshold < 0 {
		return fmt.Errorf("config: species.threshold must not be negative, got %g", c.Species.Threshold)
	}
	if c.Species.Cadence < 1 {
		return fmt.Errorf("config: species.cadence must be at least 1, got %d", c.Species.Cadence)
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("config: telemetry.stats_window must be at least 1, got %d", c.Telemetry.StatsWindow)
	}
	if c.Telemetry.FrameCadence < 1 {
		return fmt.Errorf("config: telemetry.frame_cadence must be at least 1, got %d", c.Telemetry.FrameCadence)
	}
	return nil
}
