package main

import (
	"flag"

	"go.uber.org/zap"

	"conduit/auth"
	"conduit/crud"
	"conduit/http"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're
	// running in production, where a .config.json file is required.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	config := LoadConfig(*productionBool)

	// Set up structured logging for the whole process.
	logger := newLogger(config.IsProd())
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services. Follow and favorite come first because
	// the article listing engine builds on them.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.Pepper),
		crud.WithFollow(),
		crud.WithFavorite(),
		crud.WithArticle(),
	)
	must(err)

	tokens, err := auth.NewTokenService(config.JWTSecret)
	must(err)

	// Set up a webserver and serve the app.
	server := http.NewServer(services, tokens)
	must(server.Run(config.Port))
}

// newLogger builds the process logger: JSON in production, friendly
// console output in development.
func newLogger(isProd bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if isProd {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	must(err)
	return logger
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
