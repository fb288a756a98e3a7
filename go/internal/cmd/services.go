package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stagecue/stagecue/go/internal/broadcast"
	"github.com/stagecue/stagecue/go/internal/gateway"
	"github.com/stagecue/stagecue/go/internal/room"
	"github.com/stagecue/stagecue/go/internal/scheduler"
)

// Services holds the wired components of the timer engine.
type Services struct {
	Rooms     *room.Manager
	Scheduler *scheduler.Scheduler
	Gateway   *gateway.Service

	publisher *broadcast.JetStreamPublisher
}

// setupServices wires the dependency chain:
// store → broadcaster → scheduler → room manager → gateway.
func setupServices(ctx context.Context, cfg *Config, database *sql.DB) (*Services, error) {
	clock := clockwork.NewRealClock()
	store := room.NewRepository(database)
	sched := scheduler.New(clock, cfg.tickInterval())

	var (
		broadcaster room.Broadcaster
		publisher   *broadcast.JetStreamPublisher
	)
	if cfg.Bus.Enabled {
		jsCfg := broadcast.DefaultJetStreamConfig()
		jsCfg.URL = cfg.Bus.URL
		jsCfg.StreamName = cfg.Bus.StreamName
		jsCfg.SubjectPrefix = cfg.Bus.SubjectPrefix

		p, err := broadcast.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		broadcaster = p
		publisher = p
	} else {
		broadcaster = broadcast.NewLogPublisher()
	}

	manager := room.NewManager(clock, broadcaster, store, sched)

	gwCfg := gateway.Config{
		ConnectionConfig: gateway.DefaultConnectionConfig(),
		JetStreamConfig:  gateway.DefaultJetStreamConsumerConfig(),
	}
	gwCfg.ConnectionConfig.PingInterval = time.Duration(cfg.Gateway.PingIntervalSec) * time.Second
	gwCfg.ConnectionConfig.ReadTimeout = time.Duration(cfg.Gateway.ReadTimeoutSec) * time.Second
	gwCfg.ConnectionConfig.WriteTimeout = time.Duration(cfg.Gateway.WriteTimeoutSec) * time.Second
	gwCfg.JetStreamConfig.URL = cfg.Bus.URL
	gwCfg.JetStreamConfig.StreamName = cfg.Bus.StreamName
	gwCfg.JetStreamConfig.SubjectFilter = cfg.Bus.SubjectPrefix + ".>"
	gwCfg.JetStreamConfig.ConsumerName = cfg.Bus.ConsumerName

	gw, err := gateway.NewService(gwCfg, manager, cfg.Bus.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &Services{
		Rooms:     manager,
		Scheduler: sched,
		Gateway:   gw,
		publisher: publisher,
	}, nil
}

// Close releases external connections.
func (s *Services) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}
