// Command directoryctl runs maintenance jobs against the directory database.
package main

import (
	"fmt"
	"os"

	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/princeprakhar/biz-directory/internal/database"
	"gorm.io/gorm"
)

func main() {
	open := func(cfg *config.Config) (*gorm.DB, error) {
		return database.Open(cfg.DatabaseURL, database.LogLevelFor(cfg.LogLevel, true))
	}
	if err := newRootCmd(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
