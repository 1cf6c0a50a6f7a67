package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/tenken"
	"github.com/aretw0/tenken/pkg/core"
)

func main() {
	areas := flag.Int("areas", 200, "Number of inspection areas to generate")
	adapter := flag.String("adapter", "fs", "Storage adapter (fs, sqlite, memory)")
	keep := flag.Bool("keep", false, "Keep the benchmark data after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "tenken_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := []tenken.Option{tenken.WithAdapter(*adapter), tenken.WithLogger(logger)}

	// 1. Generate answers for every item of every area.
	sess, err := tenken.Open(ctx, benchDir, opts...)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generating %d areas in %s (%s)...\n", *areas, benchDir, *adapter)
	startGen := time.Now()
	status := core.StatusOK
	schema := sess.Schema()
	for i := 0; i < *areas; i++ {
		area := sess.AddArea(fmt.Sprintf("Area %d", i+1))
		for _, sec := range schema {
			for _, it := range sec.Items {
				if _, err := sess.SetAnswer(area.ID, it.ID, core.AnswerPatch{Status: &status}); err != nil {
					panic(err)
				}
			}
		}
	}
	if err := sess.Close(ctx); err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// 2. Cold open: load, migrate and reconcile everything.
	startOpen := time.Now()
	sess, err = tenken.Open(ctx, benchDir, opts...)
	if err != nil {
		panic(err)
	}
	openDuration := time.Since(startOpen)

	// 3. Replace the checklist, dropping one item from every area.
	next := sess.Schema()
	next[0].Items = next[0].Items[1:]
	startApply := time.Now()
	if err := sess.ApplySchema(ctx, next); err != nil {
		panic(err)
	}
	if err := sess.Close(ctx); err != nil {
		panic(err)
	}
	applyDuration := time.Since(startApply)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d areas, %d items each):\n", *areas, schema.ItemCount())
	fmt.Printf("  Open:  %v\n", openDuration)
	fmt.Printf("  Apply: %v\n", applyDuration)
	fmt.Printf("--------------------------------------------------\n")
}
