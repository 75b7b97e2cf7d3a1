package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/httpapi"
	"fieldbook.org/internal/obs"
	"fieldbook.org/internal/records"
	"fieldbook.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("FIELDBOOK_PG_DSN")
	if dsn == "" {
		log.Fatal("FIELDBOOK_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	profiles, err := access.NewProfileService(store, store)
	if err != nil {
		log.Fatalf("profile service: %v", err)
	}
	directory, err := access.NewDirectoryService(store, store)
	if err != nil {
		log.Fatalf("directory service: %v", err)
	}
	grants, err := access.NewGrantService(store, store)
	if err != nil {
		log.Fatalf("grant service: %v", err)
	}
	resolver, err := access.NewResolver(store, store)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	recordSvc, err := records.NewService(store, resolver)
	if err != nil {
		log.Fatalf("record service: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{Pinger: store}, version, httpapi.Services{
		Profiles:  profiles,
		Directory: directory,
		Grants:    grants,
		Resolver:  resolver,
		Records:   recordSvc,
	})

	addr := os.Getenv("FIELDBOOK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting fieldbook-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
