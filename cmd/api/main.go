package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/worklane/timeledger-backend-go/internal/config"
	appHTTP "github.com/worklane/timeledger-backend-go/internal/handler/http"
	"github.com/worklane/timeledger-backend-go/internal/pkg/cron"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
	"github.com/worklane/timeledger-backend-go/internal/pkg/jwt"
	"github.com/worklane/timeledger-backend-go/internal/repository/postgresql"
	authService "github.com/worklane/timeledger-backend-go/internal/service/auth"
	leaveService "github.com/worklane/timeledger-backend-go/internal/service/leave"
	reportService "github.com/worklane/timeledger-backend-go/internal/service/report"
	summaryService "github.com/worklane/timeledger-backend-go/internal/service/summary"
	timesheetService "github.com/worklane/timeledger-backend-go/internal/service/timesheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	entryRepo := postgresql.NewTimesheetRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	summaryRepo := postgresql.NewSummaryRepository(db)

	jwtSvc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	authSvc := authService.NewAuthService(userRepo, jwtSvc)
	timesheetSvc := timesheetService.NewTimesheetService(db, entryRepo, summaryRepo)
	leaveRequestSvc := leaveService.NewRequestService(db, leaveRequestRepo, leaveTypeRepo, leaveBalanceRepo, entryRepo)
	leaveBalanceSvc := leaveService.NewBalanceService(leaveBalanceRepo, leaveTypeRepo, userRepo)
	summarySvc := summaryService.NewSummaryService(db, summaryRepo, entryRepo, leaveRequestRepo)
	reportSvc := reportService.NewReportService(summaryRepo)

	authHandler := appHTTP.NewAuthHandler(jwtSvc, authSvc)
	timesheetHandler := appHTTP.NewTimesheetHandler(timesheetSvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveRequestSvc, leaveBalanceSvc)
	summaryHandler := appHTTP.NewSummaryHandler(summarySvc, reportSvc)

	router := appHTTP.NewRouter(
		cfg,
		jwtSvc,
		authHandler,
		timesheetHandler,
		leaveHandler,
		summaryHandler,
	)

	if cfg.Jobs.Enabled {
		interval, err := time.ParseDuration(cfg.Jobs.AllocationInterval)
		if err != nil {
			fmt.Println("Invalid JOBS_ALLOCATION_INTERVAL:", err)
			return
		}
		scheduler := cron.NewScheduler()
		cron.NewLeaveBalanceJobs(leaveBalanceSvc).RegisterJobs(scheduler, interval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	_ = server.Close()
}
