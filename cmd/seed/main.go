// Command main runs the database seeder for FaceGram.
package main

import (
	"context"
	"flag"
	"log"

	"facegram/internal/config"
	"facegram/internal/database"
	"facegram/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := defaults

	flag.IntVar(&opts.Users, "users", defaults.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.FollowsPerUser, "follows", defaults.FollowsPerUser, "Users each user follows")
	flag.IntVar(&opts.LikesPerPost, "likes", defaults.LikesPerPost, "Likes per post")
	flag.IntVar(&opts.CommentsPerPost, "comments", defaults.CommentsPerPost, "Comments per post")
	flag.IntVar(&opts.ChatsPerUser, "chats", defaults.ChatsPerUser, "Chats opened per user")
	flag.IntVar(&opts.MessagesPerChat, "messages", defaults.MessagesPerChat, "Messages per chat")
	flag.IntVar(&opts.HiddenPercent, "hidden", defaults.HiddenPercent, "Percent of posts stored hidden")
	flag.Int64Var(&opts.RandSeed, "seed", 0, "Random seed for a reproducible run (0 uses the clock)")
	flag.BoolVar(&opts.FastHash, "fast-hash", false, "Hash passwords with the minimum bcrypt cost")
	fixtures := flag.String("fixtures", "", "YAML fixtures file applied before generated data")
	generate := flag.Bool("generate", true, "Generate random data after fixtures")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *fixtures != "" {
		fx, err := seed.LoadFixtures(*fixtures)
		if err != nil {
			log.Fatalf("Fixtures failed: %v", err)
		}
		sum, err := s.ApplyFixtures(ctx, fx)
		if err != nil {
			log.Fatalf("Fixtures failed: %v", err)
		}
		log.Printf("Fixtures applied: %s", sum)
	}

	if *generate {
		sum, err := s.Run(ctx)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Generated: %s", sum)
	}

	log.Printf("All done. Generated users have the password: %s", seed.DefaultPassword)
}
