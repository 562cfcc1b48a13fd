package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tourvia/groupbooking-api/internal/api"
	"github.com/tourvia/groupbooking-api/internal/config"
	"github.com/tourvia/groupbooking-api/internal/db"
	"github.com/tourvia/groupbooking-api/internal/logger"
	"github.com/tourvia/groupbooking-api/internal/repository/dao"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to initialize tables -> %w", err)
	}

	s, err := api.NewServer(conf, postgresDB)
	if err != nil {
		return fmt.Errorf("failed to initialize server -> %w", err)
	}
	defer s.Close()

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
