package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayush/animanga/backend/internal/catalogue"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load shows and cover images into the catalogue",
		RunE:  runSeed,
	}
	cmd.Flags().String("file", "shows.yaml", "YAML file of shows to upsert")
	cmd.Flags().String("covers", "", "Directory with anime/ and manga/ cover images to upload")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	coversDir, _ := cmd.Flags().GetString("covers")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	svc, err := a.catalogue(ctx)
	if err != nil {
		return err
	}
	if svc == nil {
		return errors.New("seed needs MONGO_URI")
	}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		shows, err := catalogue.ReadSeed(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if _, err := svc.Seed(ctx, shows); err != nil {
			return err
		}
	}

	if coversDir != "" {
		if _, err := svc.SeedCovers(ctx, coversDir); err != nil {
			return err
		}
	}
	return nil
}
