package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"petale/internal/api"
	"petale/internal/auth"
	"petale/internal/config"
	"petale/internal/db"
	"petale/internal/repository"
	"petale/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

func main() {
	godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	rules, err := config.LoadScheduleRules()
	if err != nil {
		log.Fatalf("Invalid schedule rules: %v", err)
	}
	log.Printf("Schedule: lead time %d days (cutoff %d:00), default capacity %d, closed on %v",
		rules.LeadTimeDays, rules.CutoffHour, rules.DefaultCapacityPerWindow, rules.SortedBlackoutWeekdays())

	slotRepo := repository.NewSlotRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	productRepo := repository.NewProductRepository(database)
	expenseRepo := repository.NewExpenseRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)
	jobRepo := repository.NewJobRepository(database)

	sender := service.NewSenderService()
	preorderSvc := service.NewPreorderService(rules, slotRepo)
	orderSvc := service.NewOrderService(orderRepo, productRepo, preorderSvc, sender)
	productSvc := service.NewProductService(productRepo)
	expenseSvc := service.NewExpenseService(expenseRepo, orderRepo)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)
	jobSvc := service.NewJobService(jobRepo, orderSvc)

	preorderHandler := api.NewPreorderHandler(preorderSvc)
	orderHandler := api.NewOrderHandler(orderSvc, rules.DeliveryFlatFee)
	productHandler := api.NewProductHandler(productSvc)
	expenseHandler := api.NewExpenseHandler(expenseSvc)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/products", productHandler.ListProducts).Methods("GET")
	r.HandleFunc("/api/products/{slug}", productHandler.GetProduct).Methods("GET")
	r.HandleFunc("/api/preorder/availability", preorderHandler.Availability).Methods("GET")
	r.HandleFunc("/api/checkout/create-order", orderHandler.CreateOrder).Methods("POST")
	r.HandleFunc("/api/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware)
	admin.HandleFunc("/register", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
	admin.HandleFunc("/orders/{id}", orderHandler.UpdateOrder).Methods("PUT")
	admin.HandleFunc("/orders/{id}", orderHandler.DeleteOrder).Methods("DELETE")
	admin.HandleFunc("/orders/{id}/reject", orderHandler.RejectOrder).Methods("POST")
	admin.HandleFunc("/products", productHandler.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", productHandler.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", productHandler.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/preorder/capacity", preorderHandler.SetCapacity).Methods("POST")
	admin.HandleFunc("/preorder/blackout", preorderHandler.SetBlackout).Methods("POST")
	admin.HandleFunc("/expenses", expenseHandler.CreateExpense).Methods("POST")
	admin.HandleFunc("/expenses", expenseHandler.ListExpenses).Methods("GET")
	admin.HandleFunc("/expenses/{id}", expenseHandler.DeleteExpense).Methods("DELETE")
	admin.HandleFunc("/finance/summary", expenseHandler.FinanceSummary).Methods("GET")

	// Nightly maintenance: mark delivered orders, purge stale pending ones.
	c := cron.New()
	cronSpec := os.Getenv("JOBS_CRON")
	if cronSpec == "" {
		cronSpec = "0 3 * * *"
	}
	if _, err := c.AddFunc(cronSpec, func() {
		if err := jobSvc.MarkDeliveredOrders(); err != nil {
			log.Printf("ALERT: %v", err)
		}
		if err := jobSvc.PurgeStalePendingOrders(7 * 24 * time.Hour); err != nil {
			log.Printf("ALERT: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{os.Getenv("CORS_ORIGIN")}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, cors(r)))
}
