package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/models"
	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/store"
	"github.com/cppla/tripjournal/utils"
	"github.com/cppla/tripjournal/validation"
)

const forceFlag = "force"

func newSeedCommand() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample posts",
		Long: `Insert three published sample posts (Paris, Venice, the Swiss Alps).
A database that already has posts is left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := config.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool(forceFlag)
			n, err := seedPosts(cmd.Context(), services.NewPostService(store.NewPostStore(db)), force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d posts\n", n)
			return nil
		},
	}
	seedCmd.Flags().Bool(forceFlag, false, "Seed even when posts already exist")
	return seedCmd
}

// seedPosts creates the sample posts and returns how many were created.
func seedPosts(ctx context.Context, posts *services.PostService, force bool) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !force {
		dash, err := posts.Dashboard(ctx)
		if err != nil {
			return 0, err
		}
		if dash.Stats.Total > 0 {
			utils.Sugar.Infof("seed skipped: %d posts already exist", dash.Stats.Total)
			return 0, nil
		}
	}
	created := 0
	for _, in := range samplePosts() {
		post, err := posts.Create(ctx, &in)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		utils.Sugar.Infof("seeded post %s", post.Slug)
		created++
	}
	return created, nil
}

func samplePosts() []validation.PostInput {
	sample := func(title, caption, body, day string, lat, lng float64, city, country, cldID string) validation.PostInput {
		takenAt, _ := time.Parse(time.DateOnly, day)
		width, height := 1920, 1080
		return validation.PostInput{
			Title:     title,
			Caption:   caption,
			Body:      body,
			TakenAt:   &takenAt,
			Latitude:  &lat,
			Longitude: &lng,
			City:      city,
			Country:   country,
			Status:    models.StatusPublished,
			Media: []validation.MediaInput{{
				Type:   models.MediaImage,
				CldID:  cldID,
				Width:  &width,
				Height: &height,
			}},
		}
	}
	return []validation.PostInput{
		sample("Arrival in Paris",
			"Finally made it to the City of Light! The Eiffel Tower is even more magnificent in person.",
			"<p>After a long flight, we arrived in Paris and immediately fell in love with the city. The architecture, the food, the atmosphere: everything is perfect.</p>",
			"2024-03-15", 48.8584, 2.2945, "Paris", "France", "europe-trip/paris-eiffel-tower"),
		sample("Venice Canals",
			"Gondola ride through the magical canals of Venice. Pure magic!",
			"<p>Venice is like stepping into a fairy tale. The canals, the bridges, the history: it's absolutely breathtaking.</p>",
			"2024-03-20", 45.4408, 12.3155, "Venice", "Italy", "europe-trip/venice-canals"),
		sample("Swiss Alps",
			"Hiking in the Swiss Alps with views that take your breath away.",
			"<p>The Swiss Alps are absolutely stunning. We spent the day hiking and taking in the incredible mountain views.</p>",
			"2024-03-25", 46.8182, 8.2275, "Interlaken", "Switzerland", "europe-trip/swiss-alps"),
	}
}
