package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/binzume/gltfgen"
	"github.com/binzume/gltfgen/config"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/logger"
	"go.uber.org/zap"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] output.glb \"./assets/{name}_#.obj\"\n", os.Args[0])
		fs.PrintDefaults()
	}
	flags := config.RegisterFlags(fs)
	version := fs.Bool("version", false, "print version and exit")
	fs.Parse(os.Args[1:])

	if *version {
		fmt.Println("gltfgen", gltfgen.Version)
		return
	}
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	output, pattern := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	sink := diag.New(logger.Log)
	path, err := gltfgen.Run(context.Background(), pattern, output, cfg, sink)
	sink.Flush()
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	fmt.Println(path)
}
