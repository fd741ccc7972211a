// Command seed inserts demo match records so the history endpoints have
// data to serve during development.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beatline/internal/model"
	"beatline/internal/repository"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "beatline"
	}
	history := repository.NewHistoryRepo(client.Database(dbName))

	started := time.Now().Add(-45 * time.Minute)
	records := []model.MatchRecord{
		{
			SessionID:  "demo-1",
			HostName:   "Nina",
			Mode:       model.ModeOriginal,
			PlaylistID: "37i9dQZF1DX4o1oenSJRJd",
			WinnerID:   "p_demo0001",
			WinnerName: "Nina",
			FinalScores: []model.LeaderboardEntry{
				{Rank: 1, PlayerID: "p_demo0001", Name: "Nina", Score: 10, HasWon: true},
				{Rank: 2, PlayerID: "p_demo0002", Name: "Olaf", Score: 7, Tokens: 1},
			},
			Rounds:     12,
			StartedAt:  &started,
			FinishedAt: time.Now().Add(-10 * time.Minute),
		},
		{
			SessionID:  "demo-2",
			HostName:   "Jules",
			Mode:       model.ModePro,
			PlaylistID: "37i9dQZF1DXbTxeAdrVG2l",
			FinalScores: []model.LeaderboardEntry{
				{Rank: 1, PlayerID: "p_demo0003", Name: "Jules", Score: 6, Tokens: 4},
				{Rank: 2, PlayerID: "p_demo0004", Name: "Ada", Score: 6, Tokens: 2},
			},
			Rounds:     9,
			FinishedAt: time.Now().Add(-2 * time.Hour),
		},
	}

	for _, r := range records {
		if err := history.Save(ctx, &r); err != nil {
			log.Fatalf("Failed to seed match %s: %v", r.SessionID, err)
		}
		fmt.Printf("Seeded match %s (%s)\n", r.SessionID, r.Mode)
	}
}
