package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/api"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/data"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/graph"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/learner"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/project"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/wizard"
)

func main() {
	projectsPath := flag.String("projects", constants.ProjectsPath, "Path for projects")
	learnHost := flag.String("learnhost", constants.LearnHost, "Model learning host")
	listenAddr := flag.String("listen", constants.ListenAddr, "Listen address")
	dsn := flag.String("dsn", "", "MySQL DSN for job history (e.g. user1:password1@tcp(db:3306)/wizard_db?parseTime=true)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := project.NewStore(*projectsPath)
	if err != nil {
		log.Fatal(err)
	}

	var (
		m        *data.Manager
		recorder job.Recorder
	)
	if *dsn != "" {
		if m, err = data.New(*dsn); err != nil {
			log.Fatal(err)
		}
		defer m.Destroy()
		recorder = m
	}

	l := learner.New(learner.Config{
		LHost: *learnHost,
	})

	w, err := wizard.New(wizard.Config{
		Store:        store,
		Orchestrator: job.New(ctx, recorder),
		Packager:     l,
		Trainer:      l,
		Verify:       verifyGraph,
	})
	if err != nil {
		log.Fatal(err)
	}

	r := gin.Default()

	a := api.APIs{
		W: w,
		M: m,
	}
	a.Register(r)

	server := &http.Server{
		Addr:    *listenAddr,
		Handler: r,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	log.Printf("Listen on %s (projects: %s, learnhost: %s)", *listenAddr, store.Root, *learnHost)

	<-ctx.Done()
	log.Print("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Fail to shutdown server: %s", err)
	}
}

func verifyGraph(graphPath string) error {
	info, err := graph.Verify(graphPath, graph.InputOperationName, graph.OutputOperationName)
	if err != nil {
		return err
	}
	log.Printf("Graph verified: %s (%d bytes, %d operations)", info.Path, info.Bytes, info.Operations)

	return nil
}
