package neural

import "math"

// Distance measures genome compatibility for speciation. It combines the
// fraction of enabled genes the two genomes do not share (matched by
// innovation number) with the mean absolute weight difference over the
// genes they do share, weighted 0.6 and 0.4. Identical genomes score 0
// regardless of connection insertion order.
func Distance(a, b *Network) float32 {
	aGenes := enabledByInnovation(a)
	bGenes := enabledByInnovation(b)

	maxGenes := len(aGenes)
	if len(bGenes) > maxGenes {
		maxGenes = len(bGenes)
	}
	if maxGenes == 0 {
		return 0
	}

	// Accumulate in connection order, not map order, so the float sum is
	// identical across runs.
	matching := 0
	var weightDiff float64
	for _, c := range a.Connections {
		if !c.Enabled {
			continue
		}
		if bw, ok := bGenes[c.Innovation]; ok {
			matching++
			weightDiff += math.Abs(float64(c.Weight) - float64(bw))
		}
	}

	geneDifference := float64(maxGenes-matching) / float64(maxGenes)
	meanWeightDiff := 0.0
	if matching > 0 {
		meanWeightDiff = weightDiff / float64(matching)
	}
	return float32(0.6*geneDifference + 0.4*meanWeightDiff)
}

func enabledByInnovation(n *Network) map[int]float32 {
	genes := make(map[int]float32, len(n.Connections))
	for _, c := range n.Connections {
		if c.Enabled {
			genes[c.Innovation] = c.Weight
		}
	}
	return genes
}
