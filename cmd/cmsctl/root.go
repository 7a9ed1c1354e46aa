package main

import (
	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/config"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type app struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	_ = config.LoadDotEnv()
	cfg := config.Load()
	a := &app{}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Manage users, pages and components of a blockcms site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.DatabasePath, "path to the sqlite database")

	root.AddCommand(a.userCmd(), a.componentsCmd(), a.pagesCmd(), a.seedCmd())
	return root
}

func (a *app) open() (*gorm.DB, error) {
	return db.Open(a.dbPath, logger.Silent)
}

func (a *app) pageService(gdb *gorm.DB) *service.PageService {
	return service.NewPageService(gdb, component.Default(), zap.NewNop())
}
