package root

import (
	"context"
	"database/sql"

	"studyline/internal/config"
	"studyline/internal/engine"
	"studyline/internal/storage"
)

// app bundles everything a command needs: config, open DB, the engine
// service and the repos commands read directly.
type app struct {
	cfg   *config.Config
	db    *sql.DB
	svc   *engine.Service
	items *storage.ItemRepo
	log   *storage.ReviewLogRepo
}

func openApp(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}

	items := storage.NewItemRepo(db)
	log := storage.NewReviewLogRepo(db)
	svc := engine.NewService(
		items,
		storage.NewCardRepo(db),
		storage.NewUserRepo(db),
		storage.NewAwardRepo(db),
		log,
		engine.WithClock(engine.NewSystemClock(cfg.Location())),
		engine.WithConflictRetries(cfg.ConflictRetries),
	)

	return &app{cfg: cfg, db: db, svc: svc, items: items, log: log}, cleanup, nil
}
