package indicators

import (
	"math"
	"testing"
	"time"

	"Epoch/internal/domain/models"
)

func bar(o, h, l, c, v float64) models.Bar {
	return models.Bar{Bucket: time.Time{}, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestATRInsufficientData(t *testing.T) {
	bars := []models.Bar{bar(1, 2, 1, 1.5, 10)}
	if got := ATR(bars, 14); got != 0 {
		t.Fatalf("expected 0 for insufficient data, got %v", got)
	}
	if got := ATR(bars, 0); got != 0 {
		t.Fatalf("expected 0 for bad period, got %v", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Identical bars with range 2 and no gaps: ATR must converge to 2.
	bars := make([]models.Bar, 0, 20)
	for i := 0; i < 20; i++ {
		bars = append(bars, bar(100, 101, 99, 100, 10))
	}
	got := ATR(bars, 14)
	if math.Abs(got-2) > 1e-9 {
		t.Fatalf("ATR of constant-range bars = %v, want 2", got)
	}
}

func TestATRGapContributes(t *testing.T) {
	bars := []models.Bar{
		bar(100, 101, 99, 100, 10),
		bar(110, 111, 109, 110, 10), // gap up: TR = |111-100| = 11
		bar(110, 111, 109, 110, 10),
	}
	got := ATR(bars, 2)
	want := (11.0 + 2.0) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("ATR with gap = %v, want %v", got, want)
	}
}

func TestSMA(t *testing.T) {
	bars := []models.Bar{bar(0, 0, 0, 1, 0), bar(0, 0, 0, 2, 0), bar(0, 0, 0, 3, 0), bar(0, 0, 0, 4, 0)}
	if got := SMA(bars, 2); got != 3.5 {
		t.Fatalf("SMA(2) over last closes = %v, want 3.5", got)
	}
	if got := SMA(bars, 10); got != 0 {
		t.Fatalf("insufficient data must return 0, got %v", got)
	}
}

func TestVWAP(t *testing.T) {
	bars := []models.Bar{
		bar(0, 12, 8, 10, 100), // tp 10
		bar(0, 22, 18, 20, 300), // tp 20
	}
	got := VWAP(bars)
	want := (10*100 + 20*300) / 400.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("VWAP = %v, want %v", got, want)
	}
	if VWAP(nil) != 0 {
		t.Fatalf("empty VWAP should be 0")
	}
}

func TestCamarillaPivots(t *testing.T) {
	prior := models.OHLC{Open: 100, High: 110, Low: 90, Close: 105}
	c := CamarillaPivots(prior)
	r := 20.0
	if math.Abs(c.R3-(105+r*1.1/4)) > 1e-9 || math.Abs(c.S3-(105-r*1.1/4)) > 1e-9 {
		t.Fatalf("R3/S3 mismatch: %+v", c)
	}
	if math.Abs(c.R4-(105+r*1.1/2)) > 1e-9 || math.Abs(c.S4-(105-r*1.1/2)) > 1e-9 {
		t.Fatalf("R4/S4 mismatch: %+v", c)
	}
	wantR6 := 110.0 / 90.0 * 105.0
	if math.Abs(c.R6-wantR6) > 1e-9 {
		t.Fatalf("R6 = %v, want %v", c.R6, wantR6)
	}
	if math.Abs((105-c.S6)-(c.R6-105)) > 1e-9 {
		t.Fatalf("S6 must mirror R6 around the close: %+v", c)
	}
	if got := CamarillaPivots(models.OHLC{}); got != (models.Camarilla{}) {
		t.Fatalf("missing prior must yield zero pivots, got %+v", got)
	}
}

func TestVolumeDelta(t *testing.T) {
	if got := VolumeDelta(101, 99, 101, 100); got != 100 {
		t.Fatalf("close at high must be full buy volume, got %v", got)
	}
	if got := VolumeDelta(101, 99, 99, 100); got != -100 {
		t.Fatalf("close at low must be full sell volume, got %v", got)
	}
	if got := VolumeDelta(101, 99, 100, 100); got != 0 {
		t.Fatalf("mid close must be neutral, got %v", got)
	}
	if got := VolumeDelta(100, 100, 100, 50); got != 0 {
		t.Fatalf("zero range must contribute nothing, got %v", got)
	}
}

func TestCVDAccumulates(t *testing.T) {
	highs := []float64{101, 101}
	lows := []float64{99, 99}
	closes := []float64{101, 99}
	vols := []float64{100, 40}
	out := CVD(highs, lows, closes, vols)
	if len(out) != 2 {
		t.Fatalf("expected 2 points, got %d", len(out))
	}
	if out[0] != 100 || out[1] != 60 {
		t.Fatalf("CVD = %v, want [100 60]", out)
	}
	if CVD(highs, lows, closes, vols[:1]) != nil {
		t.Fatalf("mismatched lengths must return nil")
	}
}

func TestHVNProfileRanksByVolume(t *testing.T) {
	bars := []models.Bar{
		bar(0, 100, 100, 100, 500), // bin around 100
		bar(0, 104, 104, 104, 300), // bin around 104
		bar(0, 110, 110, 110, 800), // bin around 110
	}
	pocs := HVNProfile(bars, 1.0, 10)
	if len(pocs) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(pocs))
	}
	if !(pocs[0] > 109 && pocs[0] < 111) {
		t.Fatalf("heaviest node should rank first, got %v", pocs)
	}
	if !(pocs[1] > 99 && pocs[1] < 101) {
		t.Fatalf("second node should be near 100, got %v", pocs)
	}
}

func TestHVNProfileCollapsesAdjacentBins(t *testing.T) {
	bars := []models.Bar{
		bar(0, 100.0, 100.0, 100.0, 500),
		bar(0, 101.5, 101.5, 101.5, 400), // adjacent bin
		bar(0, 105.0, 105.0, 105.0, 300),
	}
	pocs := HVNProfile(bars, 1.0, 10)
	if len(pocs) != 2 {
		t.Fatalf("adjacent bins must collapse into one node, got %v", pocs)
	}
}

func TestHVNProfileCapsOutput(t *testing.T) {
	bars := make([]models.Bar, 0, 30)
	for i := 0; i < 30; i++ {
		p := 100 + 3*float64(i)
		bars = append(bars, bar(0, p, p, p, float64(100+i)))
	}
	if pocs := HVNProfile(bars, 1.0, 10); len(pocs) != 10 {
		t.Fatalf("profile must cap at 10 nodes, got %d", len(pocs))
	}
}

func TestSwingLevels(t *testing.T) {
	// V shape then peak: swing low at 95 (index 3), swing high at 106 (index 7).
	lows := []float64{100, 99, 97, 95, 97, 99, 101, 103, 101, 100, 99}
	highs := []float64{102, 101, 99, 97, 99, 101, 104, 106, 104, 102, 101}
	bars := make([]models.Bar, len(lows))
	for i := range bars {
		bars[i] = bar(0, highs[i], lows[i], (highs[i]+lows[i])/2, 10)
	}

	strong, weak := SwingLevels(bars, 2)
	if strong != 95 {
		t.Fatalf("swing low = %v, want 95", strong)
	}
	if weak != 106 {
		t.Fatalf("swing high = %v, want 106", weak)
	}

	if s, w := SwingLevels(bars[:3], 2); s != 0 || w != 0 {
		t.Fatalf("short series must yield no pivots, got %v %v", s, w)
	}
}

func TestStructureBias(t *testing.T) {
	if got := StructureBias(110, 100, 105); got != models.BiasBull {
		t.Fatalf("price above both levels = Bull, got %s", got)
	}
	if got := StructureBias(90, 100, 105); got != models.BiasBear {
		t.Fatalf("price below both levels = Bear, got %s", got)
	}
	if got := StructureBias(102, 100, 105); got != models.BiasNeutral {
		t.Fatalf("price between levels = Neutral, got %s", got)
	}
	if got := StructureBias(102, 0, 105); got != models.BiasNeutral {
		t.Fatalf("missing level = Neutral, got %s", got)
	}
}
