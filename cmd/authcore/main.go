package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/cleanstack/authcore/auth"
	"github.com/cleanstack/authcore/federated"
	"github.com/cleanstack/authcore/internal/config"
	"github.com/cleanstack/authcore/localauth"
	"github.com/cleanstack/authcore/server"
	"github.com/cleanstack/authcore/session"
	"github.com/cleanstack/authcore/token"
	"github.com/cleanstack/authcore/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	httpServer, err := buildServer(c)
	if err != nil {
		return err
	}

	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*http.Server, error) {
	mode, err := auth.ParseMode(c.GetAuthMode())
	if err != nil {
		return nil, fmt.Errorf("auth.ParseMode: %w", err)
	}

	secret := c.GetSigningSecret()
	if mode == auth.ModeLocal && secret == "" {
		return nil, errors.New("AUTH_SIGNING_SECRET must be set for local auth")
	}

	codec, err := token.NewCodec(secret,
		token.WithIssuer(c.GetIssuer()),
		token.WithAudience(c.GetAudience()),
	)
	if err != nil {
		return nil, fmt.Errorf("token.NewCodec: %w", err)
	}

	var localService *localauth.Service
	var serverOptions []server.ServerOption

	switch mode {
	case auth.ModeLocal:
		userRepo := users.NewInMemoryRepo()
		if err := users.SeedDemoUsers(userRepo); err != nil {
			return nil, fmt.Errorf("users.SeedDemoUsers: %w", err)
		}
		localService, err = localauth.NewService(userRepo, codec,
			localauth.WithAccessTokenTTL(c.GetAccessTokenTTL()),
			localauth.WithRefreshTokenTTL(c.GetRefreshTokenTTL()),
		)
		if err != nil {
			return nil, fmt.Errorf("localauth.NewService: %w", err)
		}

	case auth.ModeFederated:
		fedClient, err := federated.NewClient(federated.Config{
			Authority:   c.GetProviderAuthority(),
			ClientID:    c.GetProviderClientID(),
			RedirectURI: c.GetRedirectURI(),
		})
		if err != nil {
			return nil, fmt.Errorf("federated.NewClient: %w", err)
		}
		store, err := sessionStore(c)
		if err != nil {
			return nil, err
		}
		manager, err := auth.NewManager(mode, nil, fedClient, store)
		if err != nil {
			return nil, fmt.Errorf("auth.NewManager: %w", err)
		}
		serverOptions = append(serverOptions, server.WithManager(manager))
	}

	handler := server.New(c, localService, codec, serverOptions...).Handler()
	return &http.Server{Addr: c.GetPort(), Handler: handler}, nil
}

func sessionStore(c config.Config) (*session.Store, error) {
	var storage session.Storage = session.NewMemoryStorage()
	if path := c.GetSessionFile(); path != "" {
		storage = session.NewFileStorage(path)
	}
	store, err := session.NewStore(storage)
	if err != nil {
		return nil, fmt.Errorf("session.NewStore: %w", err)
	}
	return store, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
