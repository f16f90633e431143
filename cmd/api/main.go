package main

import (
	"io"
	"log"
	"os"

	"github.com/neuroguard/neuroguard-api/internal/config"
	"github.com/neuroguard/neuroguard-api/internal/logging"
	"github.com/neuroguard/neuroguard-api/internal/repository/postgres"
	"github.com/neuroguard/neuroguard-api/internal/service"
	transporthttp "github.com/neuroguard/neuroguard-api/internal/transport/http"
	"github.com/neuroguard/neuroguard-api/internal/transport/mail"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("Warning: logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	users := postgres.NewUserRepo(db)
	mailer := mail.NewResetCodeMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	auth := service.NewAuthService(users, mailer, jwtManager, cfg.ResetTTL)
	profiles := service.NewProfileService(users)

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.NewAuthHandler(auth, cfg.IsProduction()).Register(e)
	transporthttp.NewProfileHandler(profiles).Register(e, auth)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
