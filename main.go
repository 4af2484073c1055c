package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/argenlinea/receptor/internal/adpages"
	"github.com/argenlinea/receptor/internal/config"
	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/httpapi"
	"github.com/argenlinea/receptor/internal/objectstore"
	"github.com/argenlinea/receptor/internal/ocrpool"
	"github.com/argenlinea/receptor/internal/receipts"
	"github.com/argenlinea/receptor/internal/router"
	"github.com/argenlinea/receptor/internal/whatsapp"
)

func main() {
	log.Println("DEBUG: starting receipt-ingestion server...")

	config.LoadEnvFile(".env")
	config.LoadEnvFile("env.production")
	config.LoadEnvFile("env.local")

	cfg := config.Load()
	receipts.MPForceX1000 = cfg.MPForceX1000

	log.Println("DEBUG: initializing database...")
	database.InitDatabase()
	log.Println("DEBUG: database initialized successfully")

	objectsDir := ".data/objects"
	store := objectstore.New(objectsDir, fmt.Sprintf("http://%s:%s/objects", cfg.ServerHost, cfg.ServerPort), cfg.ReceiptsBucket)
	pages := adpages.NewRegistry()
	pool := ocrpool.New(4)

	inboundRouter := router.New(store, pages, pool, 20000)

	manager := whatsapp.NewManager(cfg.WWebJSDataPath, inboundRouter)
	probeCtx, cancelProbe := context.WithCancel(context.Background())
	defer cancelProbe()
	go manager.StartHealthProbe(probeCtx)

	api := httpapi.New(manager, inboundRouter, objectsDir)
	handler := api.Routes()

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	log.Printf("DEBUG: server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
