package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"blog-server/pkg/config"
	"blog-server/pkg/handlers"
	"blog-server/pkg/server"
	"blog-server/pkg/services"

	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the blog API and watches the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			config.Port = servePort
		}

		site, err := services.LoadSiteData(config.DataPath)
		if err != nil {
			return err
		}
		views, err := services.OpenViewStore(config.DBPath, config.MaxTrackedArticles)
		if err != nil {
			return err
		}
		defer views.Close()

		posts := services.NewPostStore(config.ContentPath)
		if _, err := posts.Posts(); err != nil {
			return fmt.Errorf("initial content load: %w", err)
		}

		h := &handlers.Handler{
			Posts:              posts,
			Views:              views,
			Gate:               services.NewGate(config.AuthTTL, config.DefaultPostPassword),
			Proxy:              services.NewProxy(),
			Notifier:           services.NewNotifier(),
			Site:               site,
			PrivatePassword:    config.PrivatePassword,
			WrongPasswordDelay: config.WrongPasswordDelay,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if config.WatchContent {
			go func() {
				err := services.WatchContent(ctx, config.ContentPath, func() {
					log.Printf("content changed, reloading path=%s", config.ContentPath)
					posts.Invalidate()
				})
				if err != nil {
					log.Printf("content watcher stopped err=%v", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              ":" + config.Port,
			Handler:           server.NewRouter(h, config.SessionKey(), config.StaticPath),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		log.Printf("serving addr=%s content=%s", srv.Addr, config.ContentPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
