package indicators

import (
	"sort"

	"Epoch/internal/domain/models"
)

// HVNProfile buckets traded volume into price bins of the given width
// and returns up to max bin-center prices ordered by descending volume.
// These are the ranked points of control the zone engine anchors on.
//
// Adjacent high-volume bins collapse into one node (the heavier bin
// wins) so ten near-identical prices never crowd out distinct nodes.
func HVNProfile(bars []models.Bar, binWidth float64, max int) []float64 {
	if binWidth <= 0 || max <= 0 || len(bars) == 0 {
		return nil
	}

	volume := make(map[int64]float64)
	for _, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		bin := int64(tp / binWidth)
		volume[bin] += b.Volume
	}

	type node struct {
		bin int64
		vol float64
	}
	nodes := make([]node, 0, len(volume))
	for bin, vol := range volume {
		if vol <= 0 {
			continue
		}
		nodes = append(nodes, node{bin, vol})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].vol != nodes[j].vol {
			return nodes[i].vol > nodes[j].vol
		}
		return nodes[i].bin < nodes[j].bin // deterministic on volume ties
	})

	taken := make(map[int64]bool)
	out := make([]float64, 0, max)
	for _, n := range nodes {
		if len(out) >= max {
			break
		}
		if taken[n.bin] || taken[n.bin-1] || taken[n.bin+1] {
			continue
		}
		taken[n.bin] = true
		out = append(out, (float64(n.bin)+0.5)*binWidth)
	}
	return out
}
