package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"

	"github.com/sadopc/apidoc-recorder/internal/logging"
	"github.com/sadopc/apidoc-recorder/internal/ui/panel"
	"github.com/sadopc/apidoc-recorder/internal/ui/theme"
)

func recordCmd(args []string) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	noWatchFlag := fs.Bool("no-watch", false, "Do not attach to the browser devtools")
	startFlag := fs.Bool("start", false, "Start recording immediately")
	themeFlag := fs.String("theme", "", "Panel color theme")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder record [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Attach to a browser started with --remote-debugging-port and open the\n")
		fmt.Fprintf(os.Stderr, "recording panel. Logs go to the log file while the panel is open.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nThemes: %v\n", theme.Names())
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  google-chrome --remote-debugging-port=9222 &\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder record\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder record --start --theme nord\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg := loadConfig(*configFlag)
	if *themeFlag != "" {
		cfg.UI.Theme = *themeFlag
	}
	log, closer := newLogger(logging.FileOnly(cfg.Log), os.Stderr)
	defer closer.Close()
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p, err := startPipeline(ctx, cfg, log)
	if err != nil {
		exitErr(err)
	}
	defer p.close()

	if *startFlag {
		if err := p.store.Start(); err != nil {
			exitErr(err)
		}
	}

	submitter, err := newSubmitClient(cfg.Backend, log.With().Str("component", "submit").Logger())
	if err != nil {
		exitErr(err)
	}

	p.run(ctx, !*noWatchFlag)

	model := panel.New(p.store, panel.Options{
		ExportDir: cfg.Export.Dir,
		Redactor:  p.redactor,
		Submitter: submitter,
		Theme:     theme.Resolve(cfg.UI.Theme),
	})
	defer model.Close()

	prog := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	go func() {
		if err := <-p.errs(); err != nil {
			log.Error().Err(err).Msg("control api stopped")
			prog.Send(tea.Quit())
		}
	}()

	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		p.close()
		os.Exit(1)
	}
}
