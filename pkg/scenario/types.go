package scenario

// Scenario is the top-level configuration for one simulated world.
type Scenario struct {
	SpecVersion string       `yaml:"spec_version" json:"spec_version"`
	Map         MapDef       `yaml:"map" json:"map"`
	Trees       TreesDef     `yaml:"trees" json:"trees"`
	Facilities  FacilityDef  `yaml:"facilities" json:"facilities"`
	Disaster    DisasterDef  `yaml:"disaster" json:"disaster"`
	Vehicles    []VehicleDef `yaml:"vehicles" json:"vehicles"`
}

// MapDef configures the Map Synthesizer.
type MapDef struct {
	Width                float64 `yaml:"width_m" json:"width_m"`
	Height               float64 `yaml:"height_m" json:"height_m"`
	MainRoadCount        int     `yaml:"main_road_count" json:"main_road_count"`
	MainRoadWidthM       float64 `yaml:"main_road_width_m" json:"main_road_width_m"`
	MainRoadLanes        int     `yaml:"main_road_lanes" json:"main_road_lanes"`
	MainRoadSpeedKPH     float64 `yaml:"main_road_speed_kph" json:"main_road_speed_kph"`
	AlleyWidthM          float64 `yaml:"alley_width_m" json:"alley_width_m"`
	AlleyLanes           int     `yaml:"alley_lanes" json:"alley_lanes"`
	AlleySpeedKPH        float64 `yaml:"alley_speed_kph" json:"alley_speed_kph"`
	MaxAlleysPerBlock    int     `yaml:"max_alleys_per_block" json:"max_alleys_per_block"`
	BidirectionalChance  float64 `yaml:"bidirectional_chance" json:"bidirectional_chance"`
	MinRoadLengthM       float64 `yaml:"min_road_length_m" json:"min_road_length_m"`
	Seed                 int64   `yaml:"seed" json:"seed"`
}

// TreesDef configures roadside tree placement.
type TreesDef struct {
	SpacingM        float64            `yaml:"spacing_m" json:"spacing_m"`
	MaxOffsetM      float64            `yaml:"max_offset_m" json:"max_offset_m"`
	RoadBufferM     float64            `yaml:"road_buffer_m" json:"road_buffer_m"`
	HeightRangeM    [2]float64         `yaml:"height_range_m" json:"height_range_m"`
	TrunkRangeM     [2]float64         `yaml:"trunk_range_m" json:"trunk_range_m"`
	VulnerabilityMix map[string]float64 `yaml:"vulnerability_mix" json:"vulnerability_mix"`
}

// FacilityDef configures emergency facility placement.
type FacilityDef struct {
	AmbulanceStations    int   `yaml:"ambulance_stations" json:"ambulance_stations"`
	Shelters             int   `yaml:"shelters" json:"shelters"`
	ShelterCapacityRange [2]int `yaml:"shelter_capacity_range" json:"shelter_capacity_range"`
}

// DisasterDef configures the collapse simulation.
type DisasterDef struct {
	Intensity     float64            `yaml:"intensity" json:"intensity"` // 1-10
	CollapseRates map[string]float64 `yaml:"collapse_rates" json:"collapse_rates"`
	Seed          int64              `yaml:"seed" json:"seed"`
}

// VehicleDef describes one vehicle class available for routing queries.
type VehicleDef struct {
	Name           string  `yaml:"name" json:"name"`
	WidthM         float64 `yaml:"width_m" json:"width_m"`
	LengthM        float64 `yaml:"length_m" json:"length_m"`
	MaxSpeedKPH    float64 `yaml:"max_speed_kph" json:"max_speed_kph"`
	MinRoadWidthM  float64 `yaml:"min_road_width_m" json:"min_road_width_m"`
	CanUseSidewalk bool    `yaml:"can_use_sidewalk" json:"can_use_sidewalk"`
}

// Default returns a scenario with the reference parameter set: a 2000x2000 m
// map with 4 arteries, Taiwan-style urban tree mix, and the standard
// emergency fleet.
func Default() *Scenario {
	return &Scenario{
		SpecVersion: "0.1.0",
		Map: MapDef{
			Width:               2000,
			Height:              2000,
			MainRoadCount:       4,
			MainRoadWidthM:      12,
			MainRoadLanes:       4,
			MainRoadSpeedKPH:    70,
			AlleyWidthM:         6,
			AlleyLanes:          2,
			AlleySpeedKPH:       30,
			MaxAlleysPerBlock:   4,
			BidirectionalChance: 0.7,
			MinRoadLengthM:      5,
			Seed:                1,
		},
		Trees: TreesDef{
			SpacingM:     25,
			MaxOffsetM:   8,
			RoadBufferM:  3,
			HeightRangeM: [2]float64{4, 25},
			TrunkRangeM:  [2]float64{0.2, 1.5},
			VulnerabilityMix: map[string]float64{
				"I": 0.1, "II": 0.3, "III": 0.6,
			},
		},
		Facilities: FacilityDef{
			AmbulanceStations:    3,
			Shelters:             8,
			ShelterCapacityRange: [2]int{100, 1000},
		},
		Disaster: DisasterDef{
			Intensity: 5,
			CollapseRates: map[string]float64{
				"I": 0.8, "II": 0.5, "III": 0.1,
			},
			Seed: 1,
		},
		Vehicles: DefaultVehicles(),
	}
}

// DefaultVehicles returns the standard fleet definitions.
func DefaultVehicles() []VehicleDef {
	return []VehicleDef{
		{Name: "pedestrian", WidthM: 0.6, LengthM: 0.6, MaxSpeedKPH: 5, MinRoadWidthM: 0.8, CanUseSidewalk: true},
		{Name: "motorcycle", WidthM: 0.8, LengthM: 2.0, MaxSpeedKPH: 60, MinRoadWidthM: 1.2},
		{Name: "car", WidthM: 1.8, LengthM: 4.5, MaxSpeedKPH: 50, MinRoadWidthM: 2.2},
		{Name: "ambulance", WidthM: 2.5, LengthM: 7.0, MaxSpeedKPH: 80, MinRoadWidthM: 3.0},
		{Name: "fire_truck", WidthM: 3.0, LengthM: 12.0, MaxSpeedKPH: 60, MinRoadWidthM: 3.5},
	}
}
