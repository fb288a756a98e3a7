package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stagecue/stagecue/go/internal/dbconfig"
	"github.com/stagecue/stagecue/go/internal/markers"
	"github.com/stagecue/stagecue/go/internal/models"
)

// SeedRoom mirrors the JSON seed file structure.
type SeedRoom struct {
	RoomID  string `json:"room_id"`
	AdminID string `json:"admin_id"`
	Timers  []struct {
		Name        string `json:"name"`
		DurationSec int    `json:"duration_sec"`
	} `json:"timers"`
}

func main() {
	// 1) Load the JSON seed file
	path := "go/internal/assets/rooms.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var rooms []SeedRoom
	if err := json.Unmarshal(data, &rooms); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert rooms and their timers
	ctx := context.Background()
	seeded := 0
	for _, r := range rooms {
		if r.RoomID == "" {
			r.RoomID = uuid.New().String()
		}
		now := time.Now()
		_, err := pool.Exec(ctx, `
			INSERT INTO rooms (room_id, admin_id, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (room_id) DO UPDATE SET admin_id = EXCLUDED.admin_id, updated_at = EXCLUDED.updated_at`,
			r.RoomID, r.AdminID, now,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "upsert room %s: %v\n", r.RoomID, err)
			os.Exit(1)
		}

		for i, t := range r.Timers {
			markersJSON, err := json.Marshal(markers.Generate(t.DurationSec))
			if err != nil {
				fmt.Fprintf(os.Stderr, "marshal markers: %v\n", err)
				os.Exit(1)
			}
			_, err = pool.Exec(ctx, `
				INSERT INTO room_timers (id, room_id, name, duration_sec, state, markers, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), r.RoomID, t.Name, t.DurationSec, models.TimerStateIdle, markersJSON, i+1,
			)
			if err != nil {
				fmt.Fprintf(os.Stderr, "insert timer %q in room %s: %v\n", t.Name, r.RoomID, err)
				os.Exit(1)
			}
		}
		seeded++
	}

	fmt.Printf("seeded %d rooms\n", seeded)
}
