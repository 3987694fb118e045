package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/config"
	"github.com/effective-security/xlog"
	"sigs.k8s.io/yaml"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "main")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("learnagent", flag.ContinueOnError)
	cfgFile := fs.String("cfg", "", "path to the configuration file, the environment is used when empty")
	envDir := fs.String("env-dir", ".", "folder with the .env and .env.user files")
	printConfig := fs.Bool("print-config", false, "print the effective configuration and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(*envDir); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return err
	}

	if *printConfig {
		return printEffectiveConfig(out, cfg)
	}

	xlog.SetFormatter(xlog.NewStringFormatter(out))
	xlog.SetGlobalLogLevel(cfg.GetLogLevel())

	logger.KV(xlog.INFO, "status", "starting", "port", cfg.Port)

	a, err := newAgent(ctx, cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// printEffectiveConfig writes the configuration as YAML, with secrets masked.
func printEffectiveConfig(out io.Writer, cfg *config.Config) error {
	masked := *cfg
	llmCfg := *cfg.LLM
	llmCfg.Providers = nil
	for _, p := range cfg.LLM.Providers {
		cp := *p
		if cp.Token != "" {
			cp.Token = "***"
		}
		llmCfg.Providers = append(llmCfg.Providers, &cp)
	}
	masked.LLM = &llmCfg

	masked.MCP.Servers = nil
	for _, srv := range cfg.MCP.Servers {
		cp := *srv
		if len(cp.Headers) > 0 {
			cp.Headers = make(map[string]string, len(srv.Headers))
			for k := range srv.Headers {
				cp.Headers[k] = "***"
			}
		}
		masked.MCP.Servers = append(masked.MCP.Servers, &cp)
	}

	js, err := yaml.Marshal(&masked)
	if err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}
	_, err = out.Write(js)
	return errors.WithStack(err)
}
