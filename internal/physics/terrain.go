package physics

// TerrainProvider supplies ground elevation under a world position.
// Real elevation data is an external collaborator; the core ships a
// flat provider.
type TerrainProvider interface {
	ElevationAt(x, z float64) float64
}

// FlatTerrain is a constant-elevation provider.
type FlatTerrain struct {
	ElevationM float64
}

func (f FlatTerrain) ElevationAt(x, z float64) float64 { return f.ElevationM }
