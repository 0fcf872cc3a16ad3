package grid

// Map2D is a dense per-cell store backed by a flat slice.
// All accessors wrap their position onto the torus, so out-of-range
// queries resolve to a real cell instead of failing.
type Map2D[T any] struct {
	cells  []T
	bounds Bounds
}

// NewMap2D creates a map covering the given bounds.
func NewMap2D[T any](bounds Bounds) *Map2D[T] {
	return &Map2D[T]{
		cells:  make([]T, bounds.Cells()),
		bounds: bounds,
	}
}

// Bounds returns the map extent.
func (m *Map2D[T]) Bounds() Bounds {
	return m.bounds
}

func (m *Map2D[T]) index(p Position) int {
	p = m.bounds.Wrap(p)
	return p.R*m.bounds.Columns + p.Q
}

// At returns the value at p.
func (m *Map2D[T]) At(p Position) T {
	return m.cells[m.index(p)]
}

// Ptr returns a mutable pointer to the cell at p.
func (m *Map2D[T]) Ptr(p Position) *T {
	return &m.cells[m.index(p)]
}

// Set stores v at p.
func (m *Map2D[T]) Set(p Position, v T) {
	m.cells[m.index(p)] = v
}

// Clear resets every cell to the zero value.
func (m *Map2D[T]) Clear() {
	var zero T
	for i := range m.cells {
		m.cells[i] = zero
	}
}

// Each calls fn for every cell in row-major order.
func (m *Map2D[T]) Each(fn func(p Position, v *T)) {
	for r := 0; r < m.bounds.Rows; r++ {
		for q := 0; q < m.bounds.Columns; q++ {
			i := r*m.bounds.Columns + q
			fn(Position{Q: q, R: r}, &m.cells[i])
		}
	}
}

// Food is the content of one food cell. SpawnTick records when the cell
// last received plant matter so stale cells can be decayed.
type Food struct {
	Plant     float32
	Meat      float32
	SpawnTick int64
}

// HasFood reports whether the cell holds any edible matter.
func (f Food) HasFood() bool {
	return f.Plant > 0 || f.Meat > 0
}

// IsPlant reports whether the cell holds plant matter.
func (f Food) IsPlant() bool {
	return f.Plant > 0
}

// IsMeat reports whether the cell holds meat.
func (f Food) IsMeat() bool {
	return f.Meat > 0
}

// WorldMaps bundles the per-cell state the stepper consults: food, scent
// concentration, and solidity. Segment occupancy lives with the ECS side
// because its values are entity handles.
type WorldMaps struct {
	Bounds Bounds
	Food   *Map2D[Food]
	Scent  *Map2D[float32]
	Solids *Map2D[bool]

	scratch []float32 // scent diffusion buffer
}

// NewWorldMaps creates empty world maps for the given bounds.
func NewWorldMaps(bounds Bounds) *WorldMaps {
	return &WorldMaps{
		Bounds:  bounds,
		Food:    NewMap2D[Food](bounds),
		Scent:   NewMap2D[float32](bounds),
		Solids:  NewMap2D[bool](bounds),
		scratch: make([]float32, bounds.Cells()),
	}
}

// FoodAt returns the food cell at p.
func (w *WorldMaps) FoodAt(p Position) Food {
	return w.Food.At(p)
}

// DepositPlant adds plant matter at p and stamps the spawn tick.
func (w *WorldMaps) DepositPlant(p Position, amount float32, tick int64) {
	cell := w.Food.Ptr(p)
	cell.Plant += amount
	cell.SpawnTick = tick
}

// DepositMeat adds meat at p.
func (w *WorldMaps) DepositMeat(p Position, amount float32, tick int64) {
	cell := w.Food.Ptr(p)
	cell.Meat += amount
	cell.SpawnTick = tick
}

// IsSolid reports whether p is blocked.
func (w *WorldMaps) IsSolid(p Position) bool {
	return w.Solids.At(p)
}

// ScentAt returns the scent concentration at p.
func (w *WorldMaps) ScentAt(p Position) float32 {
	return w.Scent.At(p)
}

// AddScent deposits scent at p, saturating at cap.
func (w *WorldMaps) AddScent(p Position, amount, cap float32) {
	cell := w.Scent.Ptr(p)
	if *cell < cap {
		*cell += amount
		if *cell > cap {
			*cell = cap
		}
	}
}

// DiffuseAndDecayScent advances the scent field one tick. Each cell keeps
// (1-diffusion) of its own concentration and takes diffusion times the mean
// of its six neighbors, then loses a flat dispersion amount, clamped at zero.
// The update reads from a snapshot, so it is order-independent and
// deterministic.
func (w *WorldMaps) DiffuseAndDecayScent(diffusion, dispersion float32) {
	src := w.Scent
	dst := w.scratch

	for r := 0; r < w.Bounds.Rows; r++ {
		for q := 0; q < w.Bounds.Columns; q++ {
			p := Position{Q: q, R: r}
			var neighborSum float32
			for d := Direction(0); d < NumDirections; d++ {
				neighborSum += src.At(w.Bounds.Step(p, d))
			}
			mean := neighborSum / NumDirections
			v := (1-diffusion)*src.At(p) + diffusion*mean
			v -= dispersion
			if v < 0 {
				v = 0
			}
			dst[r*w.Bounds.Columns+q] = v
		}
	}

	copy(src.cells, dst)
}

// TotalScent sums the scent field. Used by stats.
func (w *WorldMaps) TotalScent() float64 {
	var total float64
	for _, v := range w.Scent.cells {
		total += float64(v)
	}
	return total
}

// TotalFood sums plant and meat matter across all cells.
func (w *WorldMaps) TotalFood() (plant, meat float64) {
	for _, f := range w.Food.cells {
		plant += float64(f.Plant)
		meat += float64(f.Meat)
	}
	return plant, meat
}
