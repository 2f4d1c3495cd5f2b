package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"manimserve/config"
	"manimserve/models"
	"manimserve/render"
	"manimserve/validator"
)

var errRejected = errors.New("script rejected")

var (
	flagQuality string
	flagKeep    bool
)

func init() {
	renderCmd.Flags().StringVarP(&flagQuality, "quality", "q", "l", "quality tier: l, m, h (or low, medium, high)")
	renderCmd.Flags().BoolVar(&flagKeep, "keep", false, "keep the workspace instead of deleting it")
}

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Check a script the way the service does and print the verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := readScript(cmd, args[0])
		if err != nil {
			return err
		}
		_, err = checkScript(cmd.OutOrStdout(), code)
		return err
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Validate and render a script locally without uploading",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func readScript(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// checkScript prints the verdict and returns the entry point of an accepted
// script.
func checkScript(w io.Writer, code string) (string, error) {
	verdict := validator.Validate(code)
	for _, warning := range verdict.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if !verdict.Accepted {
		fmt.Fprintf(w, "rejected: %s\n", verdict.Reason)
		return "", errRejected
	}
	scene, ok := validator.ExtractEntryPoint(code)
	if !ok {
		fmt.Fprintln(w, "rejected: Scene class not found")
		return "", errRejected
	}
	fmt.Fprintf(w, "accepted: scene %s\n", scene)
	return scene, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	code, err := readScript(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	scene, err := checkScript(out, code)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithoutStorage()
	if err != nil {
		return err
	}
	supervisor := render.NewSupervisor(cfg)
	supervisor.CheckTools()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := supervisor.Render(ctx, code, scene, models.ParseQuality(flagQuality))
	if err != nil {
		return err
	}
	if !flagKeep {
		defer outcome.Release()
	}

	fmt.Fprintf(out, "video:     %s\n", outcome.VideoPath)
	if outcome.ThumbnailPath != "" {
		fmt.Fprintf(out, "thumbnail: %s\n", outcome.ThumbnailPath)
	}
	fmt.Fprintf(out, "duration:  %.2fs\n", outcome.Duration)
	if flagKeep {
		fmt.Fprintf(out, "workspace: %s\n", outcome.Workspace.Dir)
	}
	return nil
}
