package main

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/boostbin/booster"
	"github.com/ezoic/boostbin/core/bins"
)

// BenchmarkResult holds one measured accumulation configuration.
type BenchmarkResult struct {
	Configuration string
	Samples       int
	Bins          int
	Scores        int
	Duration      time.Duration
	Throughput    float64 // samples/second
	MemoryUsage   float64 // MB
}

const (
	benchSamples = 500_000
	benchRounds  = 20
)

func main() {
	fmt.Println("=== boostbin Accumulation Benchmarks ===")

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	results := []BenchmarkResult{}

	fmt.Println("1. Zero-dimension passes (no term, single bin)")
	fmt.Println(repeat("-", 50))
	results = append(results, benchmarkZeroDimension()...)

	fmt.Println("\n2. Packed passes across pack widths")
	fmt.Println(repeat("-", 50))
	results = append(results, benchmarkPackWidths()...)

	fmt.Println("\n3. Packed passes across score counts")
	fmt.Println(repeat("-", 50))
	results = append(results, benchmarkScoreCounts()...)

	fmt.Println("\n4. Wide vs scalar dispatch")
	fmt.Println(repeat("-", 50))
	results = append(results, benchmarkDispatchPaths()...)

	runtime.GC()
	runtime.ReadMemStats(&m2)

	fmt.Println("\n" + repeat("=", 90))
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println(repeat("=", 90))
	printResults(results)

	fmt.Printf("\nTotal Memory Used: %.2f MB\n", float64(m2.Alloc-m1.Alloc)/(1024*1024))
	fmt.Printf("System Memory Usage: %.2f MB\n", float64(m2.Sys)/(1024*1024))
}

func benchmarkZeroDimension() []BenchmarkResult {
	results := []BenchmarkResult{}

	for _, cfg := range []struct {
		name    string
		classes int
	}{
		{"Regression", 0},
		{"Binary", 2},
		{"Multiclass-8", 8},
	} {
		core := buildCore(benchSamples, cfg.classes)
		bag, err := booster.NewUniformBag(benchSamples)
		if err != nil {
			panic(err)
		}
		dst, err := core.NewBins(booster.TermNone)
		if err != nil {
			panic(err)
		}

		result := measure(cfg.name+" (zero-dim)", benchSamples, 1, core.Scores(), func() {
			dst.Reset()
			if err := booster.BinSums(core, booster.TermNone, bag, dst); err != nil {
				panic(err)
			}
		})
		results = append(results, result)
		fmt.Printf("  %s: %.0f samples/sec\n", cfg.name, result.Throughput)
	}

	return results
}

func benchmarkPackWidths() []BenchmarkResult {
	results := []BenchmarkResult{}

	for _, itemsPerPack := range []int{64, 16, 8, 1} {
		cBins := 256
		if itemsPerPack == 64 {
			cBins = 2 // one bit per entry
		} else if itemsPerPack == 16 {
			cBins = 16 // four bits per entry
		}
		core, iTerm, bag, dst := buildPackedPass(benchSamples, 2, cBins, itemsPerPack)

		name := fmt.Sprintf("Binary %d bins, %d/pack", cBins, itemsPerPack)
		result := measure(name, benchSamples, cBins, core.Scores(), func() {
			dst.Reset()
			if err := booster.BinSums(core, iTerm, bag, dst); err != nil {
				panic(err)
			}
		})
		results = append(results, result)
		fmt.Printf("  %s: %.0f samples/sec\n", name, result.Throughput)
	}

	return results
}

func benchmarkScoreCounts() []BenchmarkResult {
	results := []BenchmarkResult{}

	for _, classes := range []int{0, 2, 4, 8, 20} {
		core, iTerm, bag, dst := buildPackedPass(benchSamples, classes, 256, 8)

		name := configName(classes)
		result := measure(name, benchSamples, 256, core.Scores(), func() {
			dst.Reset()
			if err := booster.BinSums(core, iTerm, bag, dst); err != nil {
				panic(err)
			}
		})
		results = append(results, result)
		fmt.Printf("  %s: %.0f samples/sec\n", name, result.Throughput)
	}

	return results
}

func benchmarkDispatchPaths() []BenchmarkResult {
	results := []BenchmarkResult{}
	wasWide := booster.WideLoops()
	defer booster.SetWideLoops(wasWide)

	for _, wide := range []bool{true, false} {
		booster.SetWideLoops(wide)
		core, iTerm, bag, dst := buildPackedPass(benchSamples, 2, 256, 8)

		name := "Scalar path"
		if wide {
			name = "Wide path"
		}
		result := measure(name, benchSamples, 256, core.Scores(), func() {
			dst.Reset()
			if err := booster.BinSums(core, iTerm, bag, dst); err != nil {
				panic(err)
			}
		})
		results = append(results, result)
		fmt.Printf("  %s: %.0f samples/sec\n", name, result.Throughput)
	}

	return results
}

// measure runs fn benchRounds times and reports the per-round average.
func measure(name string, samples, bins, scores int, fn func()) BenchmarkResult {
	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	fn() // warm up
	start := time.Now()
	for i := 0; i < benchRounds; i++ {
		fn()
	}
	duration := time.Since(start) / benchRounds

	runtime.GC()
	runtime.ReadMemStats(&m2)

	memMB := 0.0
	if m2.Alloc > m1.Alloc {
		memMB = float64(m2.Alloc-m1.Alloc) / (1024 * 1024)
	}

	return BenchmarkResult{
		Configuration: name,
		Samples:       samples,
		Bins:          bins,
		Scores:        scores,
		Duration:      duration,
		Throughput:    float64(samples) / duration.Seconds(),
		MemoryUsage:   memMB,
	}
}

// buildCore generates a synthetic gradient buffer; classes == 0 means
// regression.
func buildCore(samples, classes int) *booster.BoosterCore {
	rng := rand.New(rand.NewPCG(42, 0))

	if classes == 0 {
		grads := mat.NewDense(samples, 1, nil)
		for i := 0; i < samples; i++ {
			grads.Set(i, 0, rng.NormFloat64())
		}
		core, err := booster.NewRegressionCore(grads)
		if err != nil {
			panic(err)
		}
		return core
	}

	scores := classes
	if classes == 2 {
		scores = 1
	}
	grads := mat.NewDense(samples, scores, nil)
	hess := mat.NewDense(samples, scores, nil)
	for i := 0; i < samples; i++ {
		for k := 0; k < scores; k++ {
			p := rng.Float64()
			grads.Set(i, k, p-0.5)
			hess.Set(i, k, p*(1-p))
		}
	}
	core, err := booster.NewClassificationCore(classes, grads, hess)
	if err != nil {
		panic(err)
	}
	return core
}

func buildPackedPass(samples, classes, cBins, itemsPerPack int) (*booster.BoosterCore, int, *booster.InnerBag, *bins.Tensor) {
	rng := rand.New(rand.NewPCG(7, 0))

	core := buildCore(samples, classes)
	indices := make([]int, samples)
	for i := range indices {
		indices[i] = rng.IntN(cBins)
	}
	term, err := booster.NewTerm(indices, cBins, itemsPerPack)
	if err != nil {
		panic(err)
	}
	iTerm, err := core.AddTerm(term)
	if err != nil {
		panic(err)
	}
	dst, err := core.NewBins(iTerm)
	if err != nil {
		panic(err)
	}
	bag, err := booster.NewUniformBag(samples)
	if err != nil {
		panic(err)
	}
	return core, iTerm, bag, dst
}

func configName(classes int) string {
	switch {
	case classes == 0:
		return "Regression"
	case classes == 2:
		return "Binary"
	default:
		return fmt.Sprintf("Multiclass-%d", classes)
	}
}

func printResults(results []BenchmarkResult) {
	fmt.Printf("%-28s %10s %6s %7s %12s %15s %10s\n",
		"Configuration", "Samples", "Bins", "Scores", "Duration", "Throughput", "Memory")
	fmt.Println(repeat("-", 90))

	for _, result := range results {
		fmt.Printf("%-28s %10d %6d %7d %12s %15.0f %10.2f\n",
			result.Configuration,
			result.Samples,
			result.Bins,
			result.Scores,
			result.Duration.Truncate(time.Microsecond),
			result.Throughput,
			result.MemoryUsage)
	}
}

func repeat(s string, n int) string {
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}
