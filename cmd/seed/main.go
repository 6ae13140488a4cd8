package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/buildtalk/forum/internal/config"
	"github.com/buildtalk/forum/internal/database"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg   *config.Config
	store *repository.Store
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a BuildTalk database",
	Long: `seed writes reference and demo data into the SQL database named by
DATABASE_DRIVER and DATABASE_URL. Every command is safe to run repeatedly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.DatabaseDriver == config.DriverMemory {
			return errors.New("seeding needs DATABASE_DRIVER=postgres or sqlite")
		}
		if err := logger.Init(cfg.IsDevelopment(), cfg.LogLevel); err != nil {
			return err
		}

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		store = repository.NewGormStore(db)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(achievementsCmd)
	rootCmd.AddCommand(demoUserCmd)
	rootCmd.AddCommand(contentCmd)
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Insert the default achievement ladder",
	RunE: func(cmd *cobra.Command, args []string) error {
		achievements := service.NewAchievementService(store.Achievements)
		if err := achievements.SeedDefaults(cmd.Context()); err != nil {
			return err
		}
		ladder, err := achievements.List(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d achievements in ladder\n", len(ladder))
		return nil
	},
}

var (
	demoEmail    string
	demoPassword string
	demoID       string
)

var demoUserCmd = &cobra.Command{
	Use:   "demo-user",
	Short: "Create a credential user, or the development fallback author with --id",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(store.Users)

		if demoID != "" {
			id, err := uuid.Parse(demoID)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}
			user, err := auth.EnsureUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println("Fallback user ready:", user.ID)
			return nil
		}

		user, err := auth.Register(cmd.Context(), service.RegisterInput{
			Email:     demoEmail,
			Password:  demoPassword,
			FirstName: models.StringPtr("Demo"),
			LastName:  models.StringPtr("User"),
		})
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			fmt.Println("Demo user already exists:", demoEmail)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println("Demo user created:", user.ID, demoEmail)
		return nil
	},
}

func init() {
	demoUserCmd.Flags().StringVar(&demoEmail, "email", "demo@buildtalk.local", "Login email")
	demoUserCmd.Flags().StringVar(&demoPassword, "password", "demo123456", "Login password")
	demoUserCmd.Flags().StringVar(&demoID, "id", "", "Create a passwordless user with this id instead")
}

var (
	contentUsers   int
	contentThreads int
	contentSeed    int64
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Generate fake users, threads, comments and votes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if contentUsers < 1 || contentThreads < 0 {
			return errors.New("--users must be positive and --threads not negative")
		}
		return seedContent(cmd.Context())
	},
}

func init() {
	contentCmd.Flags().IntVar(&contentUsers, "users", 5, "Number of fake users")
	contentCmd.Flags().IntVar(&contentThreads, "threads", 20, "Number of threads")
	contentCmd.Flags().Int64Var(&contentSeed, "seed", 0, "Random seed (0 picks one)")
}

var categories = []string{
	string(models.CategoryConstruction),
	string(models.CategoryFurniture),
	string(models.CategoryServices),
}

func seedContent(ctx context.Context) error {
	gofakeit.Seed(contentSeed)

	auth := service.NewAuthService(store.Users)
	achievements := service.NewAchievementService(store.Achievements)
	if err := achievements.SeedDefaults(ctx); err != nil {
		return err
	}
	threads := service.NewThreadService(store.Threads, nil, false)
	comments := service.NewCommentService(store.Comments, store.Threads, nil, false)
	votes := service.NewVoteService(store, achievements, nil)

	users := make([]*models.User, 0, contentUsers)
	for i := 0; i < contentUsers; i++ {
		user, err := auth.Register(ctx, service.RegisterInput{
			Email:     gofakeit.Email(),
			Password:  gofakeit.Password(true, true, true, false, false, 12),
			FirstName: models.StringPtr(gofakeit.FirstName()),
			LastName:  models.StringPtr(gofakeit.LastName()),
		})
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			continue
		}
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return errors.New("no users created")
	}

	pick := func() *models.User { return users[gofakeit.Number(0, len(users)-1)] }

	var commentCount, voteCount int
	for i := 0; i < contentThreads; i++ {
		thread, err := threads.Create(ctx, pick().ID, service.CreateThreadInput{
			Title:    gofakeit.Sentence(6),
			Content:  gofakeit.Paragraph(2, 4, 12, "\n\n"),
			Category: models.Category(gofakeit.RandomString(categories)),
		})
		if err != nil {
			return err
		}

		for j := gofakeit.Number(0, 5); j > 0; j-- {
			if _, err := comments.Create(ctx, pick().ID, thread.ID, gofakeit.Paragraph(1, 2, 10, " ")); err != nil {
				return err
			}
			commentCount++
		}

		for _, voter := range users {
			if !gofakeit.Bool() {
				continue
			}
			voteType := models.VoteUp
			if gofakeit.Number(1, 4) == 1 {
				voteType = models.VoteDown
			}
			if _, err := votes.Cast(ctx, voter.ID, service.CastVoteInput{
				TargetType: models.TargetThread,
				TargetID:   thread.ID,
				VoteType:   voteType,
			}); err != nil {
				return err
			}
			voteCount++
		}
	}

	logger.Log.Info("Demo content seeded",
		zap.Int("users", len(users)),
		zap.Int("threads", contentThreads),
		zap.Int("comments", commentCount),
		zap.Int("votes", voteCount),
	)
	fmt.Printf("Seeded %d users, %d threads, %d comments, %d votes\n",
		len(users), contentThreads, commentCount, voteCount)
	return nil
}
